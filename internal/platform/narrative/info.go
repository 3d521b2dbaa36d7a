package narrative

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/pilladdict/checkup/internal/domain/exam"
)

//go:embed data/ingredient_info.json
var ingredientInfoJSON []byte

// IngredientInfo is the reference sheet for one supplement ingredient: its
// regulatory function claim and intake cautions. It rides along in the
// narrative payload so the model explains from looked-up facts instead of
// inventing them.
type IngredientInfo struct {
	Name     string `json:"name"`
	Function string `json:"function"`
	Caution  string `json:"caution"`
}

const (
	noFunctionInfo = "No function information is available for this ingredient."
	noCautionInfo  = "No caution information is available for this ingredient."
)

// loadIngredientInfo parses the bundled reference sheet into a lookup keyed
// by normalized ingredient name.
func loadIngredientInfo() (map[string]IngredientInfo, error) {
	var entries []IngredientInfo
	if err := json.Unmarshal(ingredientInfoJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse ingredient info: %w", err)
	}
	info := make(map[string]IngredientInfo, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("ingredient info entry with empty name")
		}
		key := exam.NormalizeText(e.Name)
		if _, dup := info[key]; dup {
			return nil, fmt.Errorf("duplicate ingredient info entry %q", e.Name)
		}
		info[key] = e
	}
	return info, nil
}

// infoFor resolves each recommended ingredient to its reference entry,
// preserving input order. Names without an entry still appear, with
// placeholder texts, so the payload always covers the full recommendation.
func infoFor(info map[string]IngredientInfo, names []string) []IngredientInfo {
	out := make([]IngredientInfo, 0, len(names))
	for _, name := range names {
		if e, ok := info[exam.NormalizeText(name)]; ok {
			out = append(out, e)
			continue
		}
		out = append(out, IngredientInfo{Name: name, Function: noFunctionInfo, Caution: noCautionInfo})
	}
	return out
}
