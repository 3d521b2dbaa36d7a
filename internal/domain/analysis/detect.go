package analysis

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pilladdict/checkup/internal/domain/exam"
	"github.com/pilladdict/checkup/internal/domain/reference"
)

// Severity notes for range and threshold fields. Tiered and categorical
// fields use their grade label as the note, so the note can drive the
// ingredient lookup verbatim.
const (
	NoteLow  = "low"
	NoteHigh = "high"
)

// Finding is one abnormal result: the field, its value, the reference it
// was judged against, and the severity note used as a recommendation key.
type Finding struct {
	Field     string     `json:"field"`
	Value     exam.Value `json:"value"`
	Reference string     `json:"reference"`
	Note      string     `json:"note"`
}

// Detector turns grades into structured abnormal findings using each
// field's kind. It is pure over the frozen catalog; concurrent calls are
// safe.
type Detector struct {
	catalog *reference.Catalog
	logger  zerolog.Logger
}

func NewDetector(catalog *reference.Catalog, logger zerolog.Logger) *Detector {
	return &Detector{catalog: catalog, logger: logger}
}

// Detect produces the abnormal-finding set for the graded fields. Output
// order is the input field order; normal and ungradable fields are simply
// absent. fields and grades are parallel slices as produced by
// Classifier.GradeAll.
func (d *Detector) Detect(fields []exam.Field, grades []reference.GradeResult, seg reference.Segment) []Finding {
	findings := make([]Finding, 0)
	for i, f := range fields {
		if i >= len(grades) {
			break
		}
		spec := d.catalog.Field(f.Name)
		if spec == nil {
			continue
		}
		if fd := d.detectOne(f, grades[i], spec, seg); fd != nil {
			findings = append(findings, *fd)
		}
	}
	return findings
}

func (d *Detector) detectOne(f exam.Field, grade reference.GradeResult, spec *reference.FieldSpec, seg reference.Segment) *Finding {
	switch spec.Kind {
	case reference.KindRange:
		return d.detectRange(f, grade, spec, seg)
	case reference.KindTiered:
		return d.detectTiered(f, grade, spec, seg)
	case reference.KindThreshold:
		return d.detectThreshold(f, grade, spec, seg)
	case reference.KindCategorical:
		return d.detectCategorical(f, grade, spec, seg)
	default:
		return nil
	}
}

// detectRange derives the low/high direction from which side of the normal
// band's interval the value falls, not from any label text.
func (d *Detector) detectRange(f exam.Field, grade reference.GradeResult, spec *reference.FieldSpec, seg reference.Segment) *Finding {
	if grade.Grade != nil && *grade.Grade == reference.GradeNormal {
		return nil
	}
	val, ok := f.Value.Float()
	if !ok {
		return nil
	}
	nb := spec.NormalBand(seg)
	if nb == nil {
		return nil
	}
	rng, ok := nb.Predicate.(*reference.RangePredicate)
	if !ok {
		d.logger.Warn().Str("field", f.Name).Msg("range field normal band is not a range predicate")
		return nil
	}
	var note string
	switch {
	case val < rng.Min:
		note = NoteLow
	case val > rng.Max:
		note = NoteHigh
	default:
		return nil
	}
	return &Finding{
		Field:     f.Name,
		Value:     f.Value,
		Reference: d.describe(spec, nb, seg),
		Note:      note,
	}
}

// detectTiered reports any tier other than normal; the tier name is the
// note. Tier selection itself happened in the classifier via the ordered
// ladder, so exactly one tier applies.
func (d *Detector) detectTiered(f exam.Field, grade reference.GradeResult, spec *reference.FieldSpec, seg reference.Segment) *Finding {
	if grade.Grade == nil || *grade.Grade == reference.GradeNormal {
		return nil
	}
	return &Finding{
		Field:     f.Name,
		Value:     f.Value,
		Reference: d.describeTierNormal(spec, seg),
		Note:      *grade.Grade,
	}
}

// describeTierNormal renders the normal tier as an interval: its own lower
// cutoff up to the cutoff of the rung above it. The ladder's first-match
// ordering puts that rung immediately before the normal band.
func (d *Detector) describeTierNormal(spec *reference.FieldSpec, seg reference.Segment) string {
	bands := spec.Bands(seg)
	for i := range bands {
		if bands[i].Grade != reference.GradeNormal {
			continue
		}
		lo, okLo := bands[i].Predicate.(*reference.ThresholdPredicate)
		if okLo && i > 0 {
			if hi, okHi := bands[i-1].Predicate.(*reference.ThresholdPredicate); okHi {
				desc := strings.TrimSpace(fmt.Sprintf("%g to below %g %s", lo.Value, hi.Value, spec.Unit))
				if spec.SegmentSpecific(seg) {
					desc = fmt.Sprintf("%s (%s)", desc, seg)
				}
				return desc
			}
		}
		return d.describe(spec, &bands[i], seg)
	}
	return ""
}

// detectThreshold reports a meets-or-exceeds cutoff match with the band's
// grade as a fixed note. No matching band means not abnormal.
func (d *Detector) detectThreshold(f exam.Field, grade reference.GradeResult, spec *reference.FieldSpec, seg reference.Segment) *Finding {
	if grade.Grade == nil || *grade.Grade == reference.GradeNormal {
		return nil
	}
	ref := ""
	bands := spec.Bands(seg)
	for i := range bands {
		if bands[i].Grade == *grade.Grade && bands[i].Predicate != nil {
			tp, ok := bands[i].Predicate.(*reference.ThresholdPredicate)
			if ok {
				inverse := reference.ThresholdPredicate{Op: "lt", Value: tp.Value}
				ref = d.describe(spec, &reference.Band{Predicate: &inverse, Segment: bands[i].Segment}, seg)
			}
			break
		}
	}
	return &Finding{Field: f.Name, Value: f.Value, Reference: ref, Note: *grade.Grade}
}

// detectCategorical reports any bucketed status other than normal; the
// status itself is the note. Unbucketable statuses are skipped, keeping one
// unreadable field from failing the report.
func (d *Detector) detectCategorical(f exam.Field, grade reference.GradeResult, spec *reference.FieldSpec, seg reference.Segment) *Finding {
	if grade.Grade == nil {
		d.logger.Debug().Str("field", f.Name).Str("raw", f.RawValue).Msg("categorical value matched no bucket")
		return nil
	}
	if *grade.Grade == reference.GradeNormal {
		return nil
	}
	return &Finding{
		Field:     f.Name,
		Value:     f.Value,
		Reference: reference.GradeNormal,
		Note:      *grade.Grade,
	}
}

// describe renders a band's predicate with the field unit, suffixed with
// the segment when the band set is demographic-specific.
func (d *Detector) describe(spec *reference.FieldSpec, b *reference.Band, seg reference.Segment) string {
	if b.Predicate == nil {
		return ""
	}
	desc := b.Predicate.Describe(spec.Unit)
	if spec.SegmentSpecific(seg) {
		desc = fmt.Sprintf("%s (%s)", desc, seg)
	}
	return desc
}
