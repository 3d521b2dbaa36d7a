package recommend

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed data/products.json
var bundledProductsJSON []byte

// BundledProductRepo serves the product catalog shipped with the binary.
// Loaded once, never mutated; used when no database is configured and as
// the fixture repo in tests.
type BundledProductRepo struct {
	products []ProductRecord
}

func NewBundledProductRepo() (*BundledProductRepo, error) {
	var products []ProductRecord
	if err := json.Unmarshal(bundledProductsJSON, &products); err != nil {
		return nil, fmt.Errorf("parse bundled product catalog: %w", err)
	}
	return &BundledProductRepo{products: products}, nil
}

// NewStaticProductRepo wraps an explicit record list, for tests and
// alternate catalogs.
func NewStaticProductRepo(products []ProductRecord) *BundledProductRepo {
	return &BundledProductRepo{products: products}
}

func (r *BundledProductRepo) All(_ context.Context) ([]ProductRecord, error) {
	out := make([]ProductRecord, len(r.products))
	copy(out, r.products)
	return out, nil
}

func (r *BundledProductRepo) List(_ context.Context, limit, offset int) ([]ProductRecord, int, error) {
	total := len(r.products)
	if offset >= total {
		return []ProductRecord{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	page := make([]ProductRecord, end-offset)
	copy(page, r.products[offset:end])
	return page, total, nil
}
