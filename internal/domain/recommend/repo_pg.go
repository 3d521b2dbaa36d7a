package recommend

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type productRepoPG struct{ pool *pgxpool.Pool }

// NewProductRepoPG reads the supplement catalog from the product table.
// Column names follow the national food-safety dataset the catalog is
// imported from (PRDLST_REPORT_NO, PRDLST_NM, BSSH_NM, INDIV_RAWMTRL_NM,
// RAWMTRL_NM).
func NewProductRepoPG(pool *pgxpool.Pool) ProductRepository {
	return &productRepoPG{pool: pool}
}

const productCols = `report_no, product_name, manufacturer, functional_ingredients, raw_materials`

func scanProduct(row pgx.Row) (ProductRecord, error) {
	var p ProductRecord
	err := row.Scan(&p.ReportNo, &p.Name, &p.Manufacturer, &p.Ingredients, &p.RawMaterials)
	return p, err
}

func (r *productRepoPG) All(ctx context.Context) ([]ProductRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productCols+`
		FROM product
		ORDER BY report_no`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []ProductRecord
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *productRepoPG) List(ctx context.Context, limit, offset int) ([]ProductRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM product`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+productCols+`
		FROM product
		ORDER BY report_no
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]ProductRecord, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}
