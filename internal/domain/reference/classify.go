package reference

import (
	"github.com/rs/zerolog"

	"github.com/pilladdict/checkup/internal/domain/exam"
)

// GradeResult is the classification outcome for one field. A nil Grade
// means no band matched, which is a valid outcome, not an error.
type GradeResult struct {
	Field string  `json:"field"`
	Grade *string `json:"grade,omitempty"`
}

// Classifier grades exam fields against a frozen catalog.
type Classifier struct {
	catalog *Catalog
	logger  zerolog.Logger
}

func NewClassifier(catalog *Catalog, logger zerolog.Logger) *Classifier {
	return &Classifier{catalog: catalog, logger: logger}
}

// Grade evaluates the field's bands for the segment (Common fallback) in
// declared order and returns the first matching band's grade. Catalog
// authors order bands most severe first, so ties resolve toward the
// stricter grade. Bands whose predicate failed to load are skipped with a
// warning; fields absent from the catalog grade to nil.
func (cl *Classifier) Grade(f exam.Field, seg Segment) GradeResult {
	res := GradeResult{Field: f.Name}

	spec := cl.catalog.Field(f.Name)
	if spec == nil {
		return res
	}
	for _, b := range spec.Bands(seg) {
		if b.Predicate == nil {
			cl.logger.Warn().
				Str("field", f.Name).
				Str("segment", string(b.Segment)).
				Str("grade", b.Grade).
				Msg("skipping band with malformed predicate")
			continue
		}
		if b.Predicate.Matches(f.Value) {
			grade := b.Grade
			res.Grade = &grade
			return res
		}
	}
	return res
}

// GradeAll grades every field, preserving input order. One field's outcome
// never affects another's.
func (cl *Classifier) GradeAll(fields []exam.Field, seg Segment) []GradeResult {
	results := make([]GradeResult, len(fields))
	for i, f := range fields {
		results[i] = cl.Grade(f, seg)
	}
	return results
}
