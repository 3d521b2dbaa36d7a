package recommend

import (
	"github.com/pilladdict/checkup/internal/domain/analysis"
	"github.com/pilladdict/checkup/internal/domain/exam"
)

// FindingKey addresses the ingredient table by field and severity note.
type FindingKey struct {
	Field string
	Note  string
}

// abnormalToIngredients maps each (field, note) pair to its remedy
// ingredients. Static reference data, frozen at build time; pairs with no
// entry yield no recommendation, which is a valid outcome.
var abnormalToIngredients = map[FindingKey][]string{
	{exam.FieldHemoglobin, analysis.NoteLow}:          {"iron", "folate", "vitamin C", "vitamin B12"},
	{exam.FieldFastingGlucose, analysis.NoteHigh}:     {"banaba leaf extract", "chromium", "bitter melon extract", "alpha-lipoic acid", "magnesium"},
	{exam.FieldAST, analysis.NoteHigh}:                {"milk thistle (silymarin)", "vitamin E", "UDCA"},
	{exam.FieldALT, analysis.NoteHigh}:                {"milk thistle (silymarin)", "vitamin E", "UDCA", "NAC"},
	{exam.FieldGammaGTP, analysis.NoteHigh}:           {"milk thistle (silymarin)", "vitamin B complex", "glutathione", "selenium"},
	{exam.FieldBMI, "underweight"}:                    {"multivitamin", "minerals", "protein powder"},
	{exam.FieldBMI, "overweight"}:                     {"green tea extract (catechin)", "garcinia cambogia extract", "CLA", "dietary fiber"},
	{exam.FieldBMI, "obesity-1"}:                      {"green tea extract (catechin)", "garcinia cambogia extract", "CLA", "L-carnitine", "dietary fiber"},
	{exam.FieldBMI, "obesity-2"}:                      {"green tea extract (catechin)", "garcinia cambogia extract", "L-carnitine", "omega-3", "probiotics"},
	{exam.FieldBMI, "obesity-3"}:                      {"green tea extract (catechin)", "L-carnitine", "omega-3", "probiotics", "dietary fiber"},
	{exam.FieldWaist, "abdominal-obesity"}:            {"omega-3", "dietary fiber", "probiotics", "green tea extract (catechin)"},
	{exam.FieldUrineProtein, "borderline"}:            {"cranberry extract", "vitamin C", "zinc", "probiotics"},
	{exam.FieldUrineProtein, "suspected-proteinuria"}: {"cranberry extract", "vitamin C", "zinc", "omega-3", "probiotics"},
}

// RecommendIngredients unions the ingredient lists of every finding's
// (field, note) key, deduplicated and in first-seen order. Findings with no
// mapping are silently ignored.
func RecommendIngredients(findings []analysis.Finding) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, fd := range findings {
		for _, ing := range abnormalToIngredients[FindingKey{Field: fd.Field, Note: fd.Note}] {
			if _, dup := seen[ing]; dup {
				continue
			}
			seen[ing] = struct{}{}
			out = append(out, ing)
		}
	}
	return out
}
