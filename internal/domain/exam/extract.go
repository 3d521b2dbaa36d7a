package exam

import (
	"regexp"
)

// Canonical field names. Everything downstream (reference bands, ingredient
// table) is keyed by these.
const (
	FieldHemoglobin     = "hemoglobin"
	FieldFastingGlucose = "fasting-glucose"
	FieldBMI            = "bmi"
	FieldWaist          = "waist-circumference"
	FieldAST            = "ast"
	FieldALT            = "alt"
	FieldGammaGTP       = "gamma-gtp"
	FieldUrineProtein   = "urine-protein"
)

// FieldNames is the fixed extraction vocabulary in canonical order.
var FieldNames = []string{
	FieldHemoglobin,
	FieldFastingGlucose,
	FieldBMI,
	FieldWaist,
	FieldAST,
	FieldALT,
	FieldGammaGTP,
	FieldUrineProtein,
}

// Checkup reports come through OCR in Korean, English, or a mix, so each
// pattern accepts both labels. AST/ALT carry two capture groups: the
// laboratory-style label ("AST(SGOT)") is tried first and the bare name is
// the fallback.
var fieldPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{FieldHemoglobin, regexp.MustCompile(`(?:혈색소|[Hh]emoglobin)[^0-9]*?(\d+\.?\d*)`)},
	{FieldFastingGlucose, regexp.MustCompile(`(?:공복혈당|[Ff]asting\s+[Gg]lucose)[^0-9]*?(\d+\.?\d*)`)},
	{FieldBMI, regexp.MustCompile(`(?:BMI|체질량지수)[^0-9]*?(\d+\.?\d*)`)},
	{FieldWaist, regexp.MustCompile(`(?:허리둘레|[Ww]aist(?:\s+[Cc]ircumference)?)[^0-9]*?(\d+\.?\d*)`)},
	{FieldAST, regexp.MustCompile(`AST\(SGOT\)[^0-9]*?(\d+\.?\d*)|AST[^0-9]*?(\d+\.?\d*)`)},
	{FieldALT, regexp.MustCompile(`ALT\(SGPT\)[^0-9]*?(\d+\.?\d*)|ALT[^0-9]*?(\d+\.?\d*)`)},
	{FieldGammaGTP, regexp.MustCompile(`(?:감마지티피|감마GTP|γ-GTP|[Gg]amma-?GTP)[^0-9]*?(\d+\.?\d*)`)},
	{FieldUrineProtein, regexp.MustCompile(`(?:요단백|[Uu]rine\s+[Pp]rotein)[^■:]*?[■:]\s*([가-힣A-Za-z]+(?:\([+\-]+\))?[+\-]*)`)},
}

// ExtractFields applies the fixed field patterns to raw document text and
// returns typed fields in vocabulary order. Fields whose pattern does not
// match are absent from the result, not errors.
func ExtractFields(text string) []Field {
	var fields []Field
	for _, fp := range fieldPatterns {
		m := fp.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := firstGroup(m)
		if raw == "" {
			continue
		}
		fields = append(fields, NewField(fp.name, raw))
	}
	return fields
}

// firstGroup returns the first non-empty capture group, so patterns with
// alternative groups (AST/ALT) prefer the earlier, more specific label.
func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
