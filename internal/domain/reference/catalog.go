package reference

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/pilladdict/checkup/internal/domain/exam"
)

// Segment selects which band set applies to a subject.
type Segment string

const (
	SegmentMale   Segment = "male"
	SegmentFemale Segment = "female"
	SegmentCommon Segment = "common"
)

// ParseSegment maps free-form gender input onto a Segment. Anything
// unrecognized falls back to Common.
func ParseSegment(s string) Segment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "남성", "남":
		return SegmentMale
	case "female", "f", "여성", "여":
		return SegmentFemale
	default:
		return SegmentCommon
	}
}

// FieldKind drives how the abnormality detector interprets grades for a
// field. New fields of a known kind need only catalog data, not code.
type FieldKind string

const (
	KindRange       FieldKind = "range"       // one normal interval, low/high outside
	KindTiered      FieldKind = "tiered"      // contiguous severity ladder (BMI)
	KindThreshold   FieldKind = "threshold"   // single demographic cutoff (waist)
	KindCategorical FieldKind = "categorical" // status word bucketed by bands
)

// GradeNormal is the canonical "nothing to report" grade label.
const GradeNormal = "normal"

// Predicate is one classification condition. Implementations report whether
// a typed value satisfies them; numeric predicates are simply unsatisfied by
// categorical values (the band is skipped, never an error).
type Predicate interface {
	Matches(v exam.Value) bool
	// Describe returns a short human-readable rendering with the unit
	// appended, used for reference descriptions in findings.
	Describe(unit string) string
}

// RangePredicate matches numeric values inside [Min, Max], both ends
// inclusive. An open-ended upper bound is +Inf.
type RangePredicate struct {
	Min float64
	Max float64
}

func (p *RangePredicate) Matches(v exam.Value) bool {
	f, ok := v.Float()
	if !ok {
		return false
	}
	return f >= p.Min && f <= p.Max
}

func (p *RangePredicate) Describe(unit string) string {
	if math.IsInf(p.Max, 1) {
		return strings.TrimSpace(fmt.Sprintf("%g and above %s", p.Min, unit))
	}
	return strings.TrimSpace(fmt.Sprintf("%g-%g %s", p.Min, p.Max, unit))
}

// ThresholdPredicate matches numeric values against a single cutoff.
type ThresholdPredicate struct {
	Op    string // "ge", "gt", "le", "lt"
	Value float64
}

func (p *ThresholdPredicate) Matches(v exam.Value) bool {
	f, ok := v.Float()
	if !ok {
		return false
	}
	switch p.Op {
	case "ge":
		return f >= p.Value
	case "gt":
		return f > p.Value
	case "le":
		return f <= p.Value
	case "lt":
		return f < p.Value
	default:
		return false
	}
}

func (p *ThresholdPredicate) Describe(unit string) string {
	var word string
	switch p.Op {
	case "ge":
		word = "at or above"
	case "gt":
		word = "above"
	case "le":
		word = "at or below"
	case "lt":
		word = "below"
	}
	return strings.TrimSpace(fmt.Sprintf("%s %g %s", word, p.Value, unit))
}

// SetEqualsPredicate matches when the normalized categorical value equals
// one of the listed values exactly.
type SetEqualsPredicate struct {
	Values []string
}

func (p *SetEqualsPredicate) Matches(v exam.Value) bool {
	if v.Kind == exam.KindNumeric {
		return false
	}
	norm := v.Normalized()
	for _, want := range p.Values {
		if norm == exam.NormalizeText(want) {
			return true
		}
	}
	return false
}

func (p *SetEqualsPredicate) Describe(string) string {
	return "one of: " + strings.Join(p.Values, ", ")
}

// ContainsPredicate matches when the normalized categorical value contains
// any of the listed substrings.
type ContainsPredicate struct {
	Substrings []string
}

func (p *ContainsPredicate) Matches(v exam.Value) bool {
	if v.Kind == exam.KindNumeric {
		return false
	}
	norm := v.Normalized()
	if norm == "" {
		return false
	}
	for _, sub := range p.Substrings {
		if strings.Contains(norm, exam.NormalizeText(sub)) {
			return true
		}
	}
	return false
}

func (p *ContainsPredicate) Describe(string) string {
	return "contains: " + strings.Join(p.Substrings, ", ")
}

// Band is a single ordered classification rule for one field and segment.
// A nil Predicate marks an authoring mistake kept for diagnostics; the
// classifier skips it so one bad entry never aborts an evaluation.
type Band struct {
	Field     string
	Segment   Segment
	Grade     string
	Predicate Predicate
}

// FieldSpec is the loaded catalog entry for one field.
type FieldSpec struct {
	Name    string
	Kind    FieldKind
	Unit    string
	Display string

	bands map[Segment][]Band
}

// Bands returns the ordered band list for a segment, falling back to
// Common when no segment-specific bands exist. Nil when the field has no
// applicable bands at all.
func (f *FieldSpec) Bands(seg Segment) []Band {
	if bs, ok := f.bands[seg]; ok && len(bs) > 0 {
		return bs
	}
	return f.bands[SegmentCommon]
}

// NormalBand returns the band graded "normal" for the segment, with Common
// fallback, or nil if none is authored.
func (f *FieldSpec) NormalBand(seg Segment) *Band {
	bs := f.Bands(seg)
	for i := range bs {
		if bs[i].Grade == GradeNormal {
			return &bs[i]
		}
	}
	return nil
}

// SegmentSpecific reports whether the field carries bands authored for the
// given non-common segment.
func (f *FieldSpec) SegmentSpecific(seg Segment) bool {
	if seg == SegmentCommon {
		return false
	}
	bs, ok := f.bands[seg]
	return ok && len(bs) > 0
}

// Catalog is the immutable, versioned reference table. Loaded once at
// startup and read-only thereafter; safe for concurrent readers.
type Catalog struct {
	Version string

	fields   map[string]*FieldSpec
	order    []string
	warnings []string
}

// Field returns the spec for a field name, or nil when the field is not
// authored (such fields are silently excluded from grading).
func (c *Catalog) Field(name string) *FieldSpec {
	return c.fields[name]
}

// FieldNames returns field names in authored order.
func (c *Catalog) FieldNames() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Warnings returns authoring problems recorded at load time (malformed
// predicates and the like). They degrade individual bands, never the load.
func (c *Catalog) Warnings() []string {
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// BandView and FieldView are the read-only renderings served by the
// catalog inspection endpoint.
type BandView struct {
	Segment   string `json:"segment"`
	Grade     string `json:"grade"`
	Predicate string `json:"predicate"`
}

type FieldView struct {
	Name    string     `json:"name"`
	Kind    string     `json:"kind"`
	Unit    string     `json:"unit,omitempty"`
	Display string     `json:"display"`
	Bands   []BandView `json:"bands"`
}

// Describe renders the loaded catalog in a deterministic order for
// inspection. It never exposes mutable internals.
func (c *Catalog) Describe() []FieldView {
	views := make([]FieldView, 0, len(c.order))
	for _, name := range c.order {
		spec := c.fields[name]
		fv := FieldView{Name: spec.Name, Kind: string(spec.Kind), Unit: spec.Unit, Display: spec.Display}
		for _, seg := range []Segment{SegmentMale, SegmentFemale, SegmentCommon} {
			for _, b := range spec.bands[seg] {
				pv := "malformed"
				if b.Predicate != nil {
					pv = b.Predicate.Describe(spec.Unit)
				}
				fv.Bands = append(fv.Bands, BandView{Segment: string(seg), Grade: b.Grade, Predicate: pv})
			}
		}
		views = append(views, fv)
	}
	return views
}

//go:embed data/reference.json
var defaultCatalogJSON []byte

// Load parses the bundled reference catalog.
func Load() (*Catalog, error) {
	return Parse(defaultCatalogJSON)
}

type catalogJSON struct {
	Version string      `json:"version"`
	Fields  []fieldJSON `json:"fields"`
}

type fieldJSON struct {
	Name    string     `json:"name"`
	Kind    string     `json:"kind"`
	Unit    string     `json:"unit"`
	Display string     `json:"display"`
	Bands   []bandJSON `json:"bands"`
}

type bandJSON struct {
	Segment   string         `json:"segment"`
	Grade     string         `json:"grade"`
	Range     *rangeJSON     `json:"range,omitempty"`
	Threshold *thresholdJSON `json:"threshold,omitempty"`
	In        []string       `json:"in,omitempty"`
	Contains  []string       `json:"contains,omitempty"`
}

type rangeJSON struct {
	Min float64  `json:"min"`
	Max *float64 `json:"max,omitempty"` // omitted = open-ended
}

type thresholdJSON struct {
	Op    string  `json:"op"`
	Value float64 `json:"value"`
}

// Parse decodes a catalog document. Structural errors (bad JSON, duplicate
// or unnamed fields) fail the load; a malformed band predicate only
// degrades that band and is recorded as a warning, per the best-effort
// contract.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse reference catalog: %w", err)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("reference catalog has no version")
	}

	c := &Catalog{
		Version: doc.Version,
		fields:  make(map[string]*FieldSpec, len(doc.Fields)),
	}
	for _, fj := range doc.Fields {
		if fj.Name == "" {
			return nil, fmt.Errorf("reference catalog: field with empty name")
		}
		if _, dup := c.fields[fj.Name]; dup {
			return nil, fmt.Errorf("reference catalog: duplicate field %q", fj.Name)
		}
		kind := FieldKind(fj.Kind)
		switch kind {
		case KindRange, KindTiered, KindThreshold, KindCategorical:
		default:
			return nil, fmt.Errorf("reference catalog: field %q has unknown kind %q", fj.Name, fj.Kind)
		}

		spec := &FieldSpec{
			Name:    fj.Name,
			Kind:    kind,
			Unit:    fj.Unit,
			Display: fj.Display,
			bands:   make(map[Segment][]Band),
		}
		for i, bj := range fj.Bands {
			seg := Segment(bj.Segment)
			switch seg {
			case SegmentMale, SegmentFemale, SegmentCommon:
			default:
				c.warnings = append(c.warnings,
					fmt.Sprintf("field %q band %d: unknown segment %q, band dropped", fj.Name, i, bj.Segment))
				continue
			}
			pred, err := decodePredicate(bj)
			if err != nil {
				c.warnings = append(c.warnings,
					fmt.Sprintf("field %q band %d (%s): %v", fj.Name, i, bj.Grade, err))
			}
			spec.bands[seg] = append(spec.bands[seg], Band{
				Field:     fj.Name,
				Segment:   seg,
				Grade:     bj.Grade,
				Predicate: pred,
			})
		}
		c.fields[fj.Name] = spec
		c.order = append(c.order, fj.Name)
	}
	return c, nil
}

func decodePredicate(bj bandJSON) (Predicate, error) {
	var preds []Predicate
	if bj.Range != nil {
		max := math.Inf(1)
		if bj.Range.Max != nil {
			max = *bj.Range.Max
		}
		if max < bj.Range.Min {
			return nil, fmt.Errorf("range max %g below min %g", max, bj.Range.Min)
		}
		preds = append(preds, &RangePredicate{Min: bj.Range.Min, Max: max})
	}
	if bj.Threshold != nil {
		switch bj.Threshold.Op {
		case "ge", "gt", "le", "lt":
		default:
			return nil, fmt.Errorf("unknown threshold op %q", bj.Threshold.Op)
		}
		preds = append(preds, &ThresholdPredicate{Op: bj.Threshold.Op, Value: bj.Threshold.Value})
	}
	if len(bj.In) > 0 {
		preds = append(preds, &SetEqualsPredicate{Values: bj.In})
	}
	if len(bj.Contains) > 0 {
		preds = append(preds, &ContainsPredicate{Substrings: bj.Contains})
	}
	switch len(preds) {
	case 1:
		return preds[0], nil
	case 0:
		return nil, fmt.Errorf("no predicate authored")
	default:
		return nil, fmt.Errorf("multiple predicates authored")
	}
}

// Validate checks authoring invariants that tests and the offline
// `catalog validate` command rely on:
//   - every band has a usable predicate,
//   - tiered fields form a contiguous, descending severity ladder with a
//     closing catch-all and no gaps or overlaps,
//   - range and threshold fields grade numerically, categorical fields
//     categorically.
func (c *Catalog) Validate() error {
	var errs []string
	for _, name := range c.order {
		spec := c.fields[name]
		for seg, bands := range spec.bands {
			for i, b := range bands {
				if b.Predicate == nil {
					errs = append(errs, fmt.Sprintf("%s/%s band %d (%s): no usable predicate", name, seg, i, b.Grade))
				}
			}
			if spec.Kind == KindTiered {
				if err := validateTierLadder(bands); err != nil {
					errs = append(errs, fmt.Sprintf("%s/%s: %v", name, seg, err))
				}
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// validateTierLadder enforces the tiered-field shape: strictly descending
// "ge" thresholds followed by one "lt" catch-all at the final rung's cutoff.
// First-match-wins evaluation then assigns every value exactly one tier and
// a value at a tier's lower bound lands in that tier.
func validateTierLadder(bands []Band) error {
	if len(bands) < 2 {
		return fmt.Errorf("tiered field needs at least two bands, got %d", len(bands))
	}
	prev := math.Inf(1)
	for i, b := range bands[:len(bands)-1] {
		tp, ok := b.Predicate.(*ThresholdPredicate)
		if !ok || tp.Op != "ge" {
			return fmt.Errorf("band %d (%s) must be a ge-threshold", i, b.Grade)
		}
		if tp.Value >= prev {
			return fmt.Errorf("band %d (%s) cutoff %g not below previous %g", i, b.Grade, tp.Value, prev)
		}
		prev = tp.Value
	}
	last := bands[len(bands)-1]
	tp, ok := last.Predicate.(*ThresholdPredicate)
	if !ok || tp.Op != "lt" {
		return fmt.Errorf("final band (%s) must be an lt catch-all", last.Grade)
	}
	if tp.Value != prev {
		return fmt.Errorf("final band (%s) cutoff %g leaves a gap below %g", last.Grade, tp.Value, prev)
	}
	return nil
}
