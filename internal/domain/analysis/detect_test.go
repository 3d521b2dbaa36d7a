package analysis

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/pilladdict/checkup/internal/domain/exam"
	"github.com/pilladdict/checkup/internal/domain/reference"
)

type detectFixture struct {
	classifier *reference.Classifier
	detector   *Detector
}

func newDetectFixture(t *testing.T) detectFixture {
	t.Helper()
	c, err := reference.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return detectFixture{
		classifier: reference.NewClassifier(c, zerolog.Nop()),
		detector:   NewDetector(c, zerolog.Nop()),
	}
}

func (fx detectFixture) detect(t *testing.T, fields []exam.Field, seg reference.Segment) []Finding {
	t.Helper()
	grades := fx.classifier.GradeAll(fields, seg)
	return fx.detector.Detect(fields, grades, seg)
}

func TestDetectRangeLowHigh(t *testing.T) {
	fx := newDetectFixture(t)

	tests := []struct {
		name    string
		field   string
		seg     reference.Segment
		val     float64
		note    string // "" means no finding
		wantRef string
	}{
		{"hemoglobin female low", exam.FieldHemoglobin, reference.SegmentFemale, 9.0, NoteLow, "12-15.5 g/dL (female)"},
		{"hemoglobin female normal", exam.FieldHemoglobin, reference.SegmentFemale, 13.0, "", ""},
		{"hemoglobin male low", exam.FieldHemoglobin, reference.SegmentMale, 12.5, NoteLow, "13-17 g/dL (male)"},
		{"glucose high", exam.FieldFastingGlucose, reference.SegmentMale, 120, NoteHigh, "70-100 mg/dL"},
		{"glucose low", exam.FieldFastingGlucose, reference.SegmentMale, 60, NoteLow, "70-100 mg/dL"},
		{"ast high", exam.FieldAST, reference.SegmentCommon, 55, NoteHigh, "0-40 U/L"},
		{"alt upper bound is normal", exam.FieldALT, reference.SegmentCommon, 40, "", ""},
		{"gamma-gtp female high", exam.FieldGammaGTP, reference.SegmentFemale, 60, NoteHigh, "8-46 U/L (female)"},
		{"gamma-gtp male same value normal", exam.FieldGammaGTP, reference.SegmentMale, 60, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := []exam.Field{{Name: tt.field, Value: exam.NumericValue(tt.val)}}
			findings := fx.detect(t, fields, tt.seg)
			if tt.note == "" {
				if len(findings) != 0 {
					t.Fatalf("findings = %+v, want none", findings)
				}
				return
			}
			if len(findings) != 1 {
				t.Fatalf("findings = %+v, want exactly one", findings)
			}
			fd := findings[0]
			if fd.Field != tt.field || fd.Note != tt.note {
				t.Errorf("finding = %s/%s, want %s/%s", fd.Field, fd.Note, tt.field, tt.note)
			}
			if fd.Reference != tt.wantRef {
				t.Errorf("reference = %q, want %q", fd.Reference, tt.wantRef)
			}
		})
	}
}

func TestDetectTieredBMI(t *testing.T) {
	fx := newDetectFixture(t)

	tests := []struct {
		val  float64
		note string // "" means no finding
	}{
		{17.0, "underweight"},
		{21.0, ""},
		{23.5, "overweight"},
		{27.0, "obesity-1"},
		{31.0, "obesity-2"},
		{36.0, "obesity-3"},
	}
	for _, tt := range tests {
		fields := []exam.Field{{Name: exam.FieldBMI, Value: exam.NumericValue(tt.val)}}
		findings := fx.detect(t, fields, reference.SegmentCommon)
		if tt.note == "" {
			if len(findings) != 0 {
				t.Errorf("bmi %g: findings = %+v, want none", tt.val, findings)
			}
			continue
		}
		if len(findings) != 1 || findings[0].Note != tt.note {
			t.Errorf("bmi %g: findings = %+v, want note %q", tt.val, findings, tt.note)
			continue
		}
		// The normal tier reads as an interval, not a bare lower cutoff.
		if findings[0].Reference != "18.5 to below 23 kg/m2" {
			t.Errorf("bmi %g: reference = %q", tt.val, findings[0].Reference)
		}
	}
}

func TestDetectWaistThreshold(t *testing.T) {
	fx := newDetectFixture(t)

	fields := []exam.Field{{Name: exam.FieldWaist, Value: exam.NumericValue(92)}}
	findings := fx.detect(t, fields, reference.SegmentMale)
	if len(findings) != 1 {
		t.Fatalf("findings = %+v, want one", findings)
	}
	fd := findings[0]
	if fd.Note != "abdominal-obesity" {
		t.Errorf("note = %q", fd.Note)
	}
	// Reference reads as the acceptable side of the cutoff.
	if fd.Reference != "below 90 cm (male)" {
		t.Errorf("reference = %q", fd.Reference)
	}

	// The same value is fine for the cutoff-89 side.
	fields = []exam.Field{{Name: exam.FieldWaist, Value: exam.NumericValue(84)}}
	if got := fx.detect(t, fields, reference.SegmentMale); len(got) != 0 {
		t.Errorf("male waist 84: findings = %+v, want none", got)
	}
	fields = []exam.Field{{Name: exam.FieldWaist, Value: exam.NumericValue(86)}}
	if got := fx.detect(t, fields, reference.SegmentFemale); len(got) != 1 {
		t.Errorf("female waist 86: findings = %+v, want one", got)
	}
}

func TestDetectCategoricalUrineProtein(t *testing.T) {
	fx := newDetectFixture(t)

	tests := []struct {
		raw  string
		note string // "" means no finding
	}{
		{"정상", ""},
		{"음성", ""},
		{"경계", "borderline"},
		{"양성(+)", "suspected-proteinuria"},
		{"판독불가", ""}, // unbucketable status is skipped, not an error
	}
	for _, tt := range tests {
		fields := []exam.Field{exam.NewField(exam.FieldUrineProtein, tt.raw)}
		findings := fx.detect(t, fields, reference.SegmentCommon)
		if tt.note == "" {
			if len(findings) != 0 {
				t.Errorf("%q: findings = %+v, want none", tt.raw, findings)
			}
			continue
		}
		if len(findings) != 1 || findings[0].Note != tt.note {
			t.Errorf("%q: findings = %+v, want note %q", tt.raw, findings, tt.note)
			continue
		}
		if findings[0].Reference != reference.GradeNormal {
			t.Errorf("%q: reference = %q, want normal", tt.raw, findings[0].Reference)
		}
	}
}

func TestDetectPreservesInputOrder(t *testing.T) {
	fx := newDetectFixture(t)

	fields := []exam.Field{
		{Name: exam.FieldHemoglobin, Value: exam.NumericValue(9.0)},
		{Name: exam.FieldFastingGlucose, Value: exam.NumericValue(95)}, // normal, absent
		{Name: exam.FieldBMI, Value: exam.NumericValue(31)},
		{Name: exam.FieldAST, Value: exam.NumericValue(55)},
	}
	findings := fx.detect(t, fields, reference.SegmentFemale)

	want := []string{exam.FieldHemoglobin, exam.FieldBMI, exam.FieldAST}
	if len(findings) != len(want) {
		t.Fatalf("findings = %+v, want %d", findings, len(want))
	}
	for i, name := range want {
		if findings[i].Field != name {
			t.Errorf("finding %d = %q, want %q", i, findings[i].Field, name)
		}
	}
}

// One unreadable value must not suppress findings for the other fields.
func TestDetectDegradesPerField(t *testing.T) {
	fx := newDetectFixture(t)

	fields := []exam.Field{
		exam.NewField(exam.FieldHemoglobin, "검사불가"), // categorical where numeric expected
		{Name: exam.FieldFastingGlucose, Value: exam.NumericValue(130)},
	}
	findings := fx.detect(t, fields, reference.SegmentMale)
	if len(findings) != 1 || findings[0].Field != exam.FieldFastingGlucose {
		t.Errorf("findings = %+v, want only the glucose finding", findings)
	}
}
