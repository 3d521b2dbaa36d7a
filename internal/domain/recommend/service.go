package recommend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pilladdict/checkup/internal/domain/analysis"
	"github.com/pilladdict/checkup/internal/domain/exam"
	"github.com/pilladdict/checkup/internal/domain/reference"
)

// AnalysisRequest carries one checkup analysis: a gender for segment
// selection, the extractor's field map, and optionally the raw document
// text for fields the extractor did not map.
type AnalysisRequest struct {
	UserName string            `json:"user_name"`
	Gender   string            `json:"gender"`
	Fields   map[string]string `json:"fields"`
	Text     string            `json:"text"`
}

// ExamValue is one extracted field echoed back in the result. Every
// extracted field appears here whether or not it produced a finding.
type ExamValue struct {
	Field string     `json:"field"`
	Raw   string     `json:"raw"`
	Value exam.Value `json:"value"`
}

// Result is the terminal artifact of the engine: exam values, abnormal
// findings, recommended ingredients, and candidate products. The optional
// narrative is filled by an external collaborator, never by the engine.
type Result struct {
	ExamValues       []ExamValue        `json:"exam_values"`
	AbnormalFindings []analysis.Finding `json:"abnormal_findings"`
	Ingredients      []string           `json:"ingredients"`
	MatchedProducts  []ProductRecord    `json:"matched_products"`
	Narrative        string             `json:"narrative,omitempty"`
}

// Analyzer runs one full analysis. Service implements it; CachedService
// wraps it.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*Result, error)
}

// Narrator generates the personalized narrative for a finished result.
// Implementations live outside the engine; a nil Narrator disables the
// step entirely.
type Narrator interface {
	Generate(ctx context.Context, userName string, res *Result) (string, error)
}

// Service wires the classification pipeline end to end: extract, grade,
// detect, recommend, match, assemble. It holds only frozen reference data
// and stateless collaborators, so concurrent Analyze calls need no locking.
type Service struct {
	catalog    *reference.Catalog
	classifier *reference.Classifier
	detector   *analysis.Detector
	products   ProductRepository
	narrator   Narrator
	matchLimit int
	logger     zerolog.Logger
}

func NewService(catalog *reference.Catalog, products ProductRepository, logger zerolog.Logger) *Service {
	return &Service{
		catalog:    catalog,
		classifier: reference.NewClassifier(catalog, logger),
		detector:   analysis.NewDetector(catalog, logger),
		products:   products,
		logger:     logger,
	}
}

// SetNarrator attaches the optional narrative collaborator.
func (s *Service) SetNarrator(n Narrator) { s.narrator = n }

// SetMatchLimit caps the number of matched products returned; zero means
// unlimited.
func (s *Service) SetMatchLimit(n int) { s.matchLimit = n }

// Analyze runs the full pipeline. The engine degrades per field, never per
// request: one unreadable value still yields findings for the rest. The
// only hard errors are an unreadable product catalog with a non-empty
// ingredient set.
func (s *Service) Analyze(ctx context.Context, req AnalysisRequest) (*Result, error) {
	seg := reference.ParseSegment(req.Gender)

	fields := exam.FieldsFromMap(req.Fields)
	if req.Text != "" {
		fields = mergeExtracted(fields, exam.ExtractFields(req.Text))
	}

	grades := s.classifier.GradeAll(fields, seg)
	findings := s.detector.Detect(fields, grades, seg)
	ingredients := RecommendIngredients(findings)

	matched := make([]ProductRecord, 0)
	if len(ingredients) > 0 {
		catalog, err := s.products.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("load product catalog: %w", err)
		}
		matched = MatchProducts(ingredients, catalog)
		if s.matchLimit > 0 && len(matched) > s.matchLimit {
			matched = matched[:s.matchLimit]
		}
	}

	res := &Result{
		ExamValues:       make([]ExamValue, 0, len(fields)),
		AbnormalFindings: findings,
		Ingredients:      ingredients,
		MatchedProducts:  matched,
	}
	for _, f := range fields {
		res.ExamValues = append(res.ExamValues, ExamValue{Field: f.Name, Raw: f.RawValue, Value: f.Value})
	}

	if s.narrator != nil {
		text, err := s.narrator.Generate(ctx, req.UserName, res)
		if err != nil {
			s.logger.Warn().Err(err).Msg("narrative generation failed, returning result without it")
		} else {
			res.Narrative = text
		}
	}

	s.logger.Info().
		Str("segment", string(seg)).
		Int("fields", len(fields)).
		Int("findings", len(findings)).
		Int("ingredients", len(ingredients)).
		Int("products", len(matched)).
		Msg("analysis complete")

	return res, nil
}

// mergeExtracted appends text-extracted fields that the explicit field map
// did not already provide; the map takes precedence. Vocabulary order is
// restored so the merge is deterministic.
func mergeExtracted(mapped, extracted []exam.Field) []exam.Field {
	have := make(map[string]struct{}, len(mapped))
	for _, f := range mapped {
		have[f.Name] = struct{}{}
	}
	byName := make(map[string]exam.Field, len(mapped)+len(extracted))
	for _, f := range mapped {
		byName[f.Name] = f
	}
	for _, f := range extracted {
		if _, ok := have[f.Name]; !ok {
			byName[f.Name] = f
		}
	}
	merged := make([]exam.Field, 0, len(byName))
	for _, name := range exam.FieldNames {
		if f, ok := byName[name]; ok {
			merged = append(merged, f)
		}
	}
	return merged
}
