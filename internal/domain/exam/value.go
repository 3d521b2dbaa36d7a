package exam

import (
	"strconv"
	"strings"
)

// Kind discriminates the representation of an extracted clinical value.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindUnknown     Kind = "unknown"
)

// Value is the single typed representation of a clinical field's value.
// The numeric-or-string decision is made exactly once, at extraction time;
// downstream code switches on Kind instead of re-coercing strings.
type Value struct {
	Kind Kind    `json:"kind"`
	Num  float64 `json:"num,omitempty"`
	Str  string  `json:"str,omitempty"`
}

func NumericValue(f float64) Value    { return Value{Kind: KindNumeric, Num: f} }
func CategoricalValue(s string) Value { return Value{Kind: KindCategorical, Str: s} }
func UnknownValue() Value             { return Value{Kind: KindUnknown} }

// Float returns the numeric value and whether the value is numeric.
func (v Value) Float() (float64, bool) {
	if v.Kind == KindNumeric {
		return v.Num, true
	}
	return 0, false
}

// Text returns the raw categorical text, or "" for numeric/unknown values.
func (v Value) Text() string {
	if v.Kind == KindCategorical {
		return v.Str
	}
	return ""
}

// Normalized returns the lower-cased, whitespace-trimmed categorical text
// used for catalog comparisons.
func (v Value) Normalized() string {
	return NormalizeText(v.Text())
}

// NormalizeText lower-cases, trims, and collapses interior whitespace.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// ParseValue converts a raw extracted string into a typed Value. A string
// that parses as a float becomes Numeric; a non-empty string that does not
// becomes Categorical; an empty string is Unknown. Conversion failure is
// not an error: categorical predicates still apply downstream.
func ParseValue(raw string) Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownValue()
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return NumericValue(f)
	}
	return CategoricalValue(raw)
}

// Field is one named clinical measurement extracted from a checkup
// document. Immutable once produced.
type Field struct {
	Name     string `json:"name"`
	RawValue string `json:"raw_value"`
	Value    Value  `json:"value"`
}

// NewField builds a Field, typing the raw value on the way in.
func NewField(name, raw string) Field {
	return Field{Name: name, RawValue: strings.TrimSpace(raw), Value: ParseValue(raw)}
}

// FieldsFromMap converts an extractor's field→raw-string map into typed
// fields, keeping only names in the fixed vocabulary and preserving the
// vocabulary's declared order so output is deterministic.
func FieldsFromMap(values map[string]string) []Field {
	fields := make([]Field, 0, len(values))
	for _, name := range FieldNames {
		raw, ok := values[name]
		if !ok {
			continue
		}
		fields = append(fields, NewField(name, raw))
	}
	return fields
}
