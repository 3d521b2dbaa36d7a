package recommend

import (
	"context"
	"strings"
)

// ProductRecord is one supplement catalog entry. Read-only reference data;
// the engine never mutates it.
type ProductRecord struct {
	ReportNo     string `json:"report_no" db:"report_no"`
	Name         string `json:"name" db:"product_name"`
	Manufacturer string `json:"manufacturer" db:"manufacturer"`
	Ingredients  string `json:"ingredients" db:"functional_ingredients"`
	RawMaterials string `json:"raw_materials" db:"raw_materials"`
}

// ingredientText is the combined free-text searched by the matcher.
func (p ProductRecord) ingredientText() string {
	return strings.ToLower(p.Ingredients + "\n" + p.RawMaterials)
}

// ProductRepository reads the product catalog. Implementations are the
// bundled JSON catalog and a Postgres table.
type ProductRepository interface {
	All(ctx context.Context) ([]ProductRecord, error)
	List(ctx context.Context, limit, offset int) ([]ProductRecord, int, error)
}

// MatchProducts returns every product whose combined ingredient text
// contains any recommended ingredient as a case-insensitive substring,
// preserving catalog order. An empty ingredient set yields an empty list.
func MatchProducts(ingredients []string, products []ProductRecord) []ProductRecord {
	matched := make([]ProductRecord, 0)
	if len(ingredients) == 0 {
		return matched
	}
	needles := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		ing = strings.ToLower(strings.TrimSpace(ing))
		if ing != "" {
			needles = append(needles, ing)
		}
	}
	for _, p := range products {
		text := p.ingredientText()
		for _, n := range needles {
			if strings.Contains(text, n) {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched
}
