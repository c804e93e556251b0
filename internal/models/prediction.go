package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ScreeningInput is the fixed feature vector submitted for a PCOS screening.
// Fields are pointers so a missing value can be told apart from zero.
// Binary fields use 1 for yes and 0 for no; CycleRegularity is 1 for
// regular and 0 for irregular cycles.
type ScreeningInput struct {
	Age             *float64
	Weight          *float64
	Height          *float64
	BMI             *float64
	PulseRate       *float64
	RespiratoryRate *float64
	Hemoglobin      *float64
	CycleRegularity *float64
	CycleLength     *float64
	YearsMarried    *float64
	Pregnant        *float64
	Abortions       *float64
	WeightGain      *float64
	HairGrowth      *float64
	SkinDarkening   *float64
	HairLoss        *float64
	Pimples         *float64
	FastFood        *float64
	RegularExercise *float64
}

// ScreeningFeature describes one feature of the screening vector and the key
// the inference service expects for it.
type ScreeningFeature struct {
	// Name is the Go-facing identifier used in validation messages.
	Name string
	// WireKey is the exact key of the inference service, whitespace included.
	WireKey string
	Binary  bool
	field   func(*ScreeningInput) **float64
}

// ScreeningFeatures lists the vector in the order the inference service was trained on.
var ScreeningFeatures = []ScreeningFeature{
	{Name: "age", WireKey: " Age (yrs)", field: func(s *ScreeningInput) **float64 { return &s.Age }},
	{Name: "weight", WireKey: "Weight (Kg)", field: func(s *ScreeningInput) **float64 { return &s.Weight }},
	{Name: "height", WireKey: "Height(Cm) ", field: func(s *ScreeningInput) **float64 { return &s.Height }},
	{Name: "bmi", WireKey: "BMI", field: func(s *ScreeningInput) **float64 { return &s.BMI }},
	{Name: "pulseRate", WireKey: "Pulse rate(bpm) ", field: func(s *ScreeningInput) **float64 { return &s.PulseRate }},
	{Name: "respiratoryRate", WireKey: "RR (breaths/min)", field: func(s *ScreeningInput) **float64 { return &s.RespiratoryRate }},
	{Name: "hemoglobin", WireKey: "Hb(g/dl)", field: func(s *ScreeningInput) **float64 { return &s.Hemoglobin }},
	{Name: "cycleRegularity", WireKey: "Cycle(R/I)", Binary: true, field: func(s *ScreeningInput) **float64 { return &s.CycleRegularity }},
	{Name: "cycleLength", WireKey: "Cycle length(days)", field: func(s *ScreeningInput) **float64 { return &s.CycleLength }},
	{Name: "yearsMarried", WireKey: "Marraige Status (Yrs)", field: func(s *ScreeningInput) **float64 { return &s.YearsMarried }},
	{Name: "pregnant", WireKey: "Pregnant(Y/N)", Binary: true, field: func(s *ScreeningInput) **float64 { return &s.Pregnant }},
	{Name: "abortions", WireKey: "No. of abortions", field: func(s *ScreeningInput) **float64 { return &s.Abortions }},
	{Name: "weightGain", WireKey: "Weight gain(Y/N)", Binary: true, field: func(s *ScreeningInput) **float64 { return &s.WeightGain }},
	{Name: "hairGrowth", WireKey: "hair growth(Y/N)", Binary: true, field: func(s *ScreeningInput) **float64 { return &s.HairGrowth }},
	{Name: "skinDarkening", WireKey: "Skin darkening (Y/N)", Binary: true, field: func(s *ScreeningInput) **float64 { return &s.SkinDarkening }},
	{Name: "hairLoss", WireKey: "Hair loss(Y/N)", Binary: true, field: func(s *ScreeningInput) **float64 { return &s.HairLoss }},
	{Name: "pimples", WireKey: "Pimples(Y/N)", Binary: true, field: func(s *ScreeningInput) **float64 { return &s.Pimples }},
	{Name: "fastFood", WireKey: "Fast food (Y/N)", Binary: true, field: func(s *ScreeningInput) **float64 { return &s.FastFood }},
	{Name: "regularExercise", WireKey: "Reg.Exercise(Y/N)", Binary: true, field: func(s *ScreeningInput) **float64 { return &s.RegularExercise }},
}

var featureByKey = func() map[string]ScreeningFeature {
	m := make(map[string]ScreeningFeature, len(ScreeningFeatures)*2)
	for _, f := range ScreeningFeatures {
		m[normalizeFeatureKey(f.WireKey)] = f
		m[strings.ToLower(f.Name)] = f
	}
	return m
}()

func normalizeFeatureKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Value returns the feature's value in s and whether it is present.
func (f ScreeningFeature) Value(s *ScreeningInput) (float64, bool) {
	p := *f.field(s)
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Set stores v as the feature's value in s.
func (f ScreeningFeature) Set(s *ScreeningInput, v float64) {
	*f.field(s) = &v
}

// Missing returns the wire keys of every feature without a value, trimmed for display.
func (s *ScreeningInput) Missing() []string {
	var missing []string
	for _, f := range ScreeningFeatures {
		if _, ok := f.Value(s); !ok {
			missing = append(missing, strings.TrimSpace(f.WireKey))
		}
	}
	return missing
}

// MarshalJSON encodes the vector with the inference service's exact keys.
// Absent features are omitted.
func (s ScreeningInput) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, len(ScreeningFeatures))
	for _, f := range ScreeningFeatures {
		if v, ok := f.Value(&s); ok {
			out[f.WireKey] = v
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the exact wire keys, the same keys without the
// surrounding whitespace, or the feature names. Values may be JSON numbers,
// numeric strings or booleans; null and empty strings count as absent.
// Unknown keys are ignored.
func (s *ScreeningInput) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ScreeningInput{}
	for key, value := range raw {
		f, ok := featureByKey[normalizeFeatureKey(key)]
		if !ok {
			continue
		}
		v, present, err := decodeFlexNumber(value)
		if err != nil {
			return fmt.Errorf("%s: %w", strings.TrimSpace(f.WireKey), err)
		}
		if present {
			f.Set(s, v)
		}
	}
	return nil
}

func decodeFlexNumber(raw json.RawMessage) (float64, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, false, nil
	}
	switch trimmed[0] {
	case '"':
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return 0, false, err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return 0, false, nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false, fmt.Errorf("%q is not a number", str)
		}
		return v, true, nil
	case 't':
		return 1, true, nil
	case 'f':
		return 0, true, nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return 0, false, fmt.Errorf("expected a number")
	}
	return v, true, nil
}

// Probabilities is the class probability pair returned by the inference service.
type Probabilities struct {
	NoPCOS float64 `json:"no_pcos"`
	PCOS   float64 `json:"pcos"`
}

// FeatureImpact is one feature's signed contribution to a prediction.
type FeatureImpact struct {
	Feature string  `json:"feature"`
	Impact  float64 `json:"impact"`
}

// UnmarshalJSON accepts either {"feature": f, "impact": i} or [f, i].
func (fi *FeatureImpact) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pair [2]json.RawMessage
		if err := json.Unmarshal(trimmed, &pair); err != nil {
			return err
		}
		if err := json.Unmarshal(pair[0], &fi.Feature); err != nil {
			return err
		}
		return json.Unmarshal(pair[1], &fi.Impact)
	}
	type plain FeatureImpact
	return json.Unmarshal(trimmed, (*plain)(fi))
}

// FeaturePairs is a feature impact list encoded as [[feature, impact], ...],
// the shape the inference service and the web client exchange.
type FeaturePairs []FeatureImpact

func (p FeaturePairs) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, len(p))
	for i, fi := range p {
		pairs[i] = [2]any{fi.Feature, fi.Impact}
	}
	return json.Marshal(pairs)
}

func (p *FeaturePairs) UnmarshalJSON(data []byte) error {
	var pairs [][]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	out := make(FeaturePairs, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return fmt.Errorf("feature pair %d: expected 2 elements, got %d", i, len(pair))
		}
		var fi FeatureImpact
		if err := json.Unmarshal(pair[0], &fi.Feature); err != nil {
			return fmt.Errorf("feature pair %d: %w", i, err)
		}
		if err := json.Unmarshal(pair[1], &fi.Impact); err != nil {
			return fmt.Errorf("feature pair %d: %w", i, err)
		}
		out = append(out, fi)
	}
	*p = out
	return nil
}

// SortByImpact orders impacts by descending absolute value. Ties keep their input order.
func SortByImpact(impacts []FeatureImpact) {
	slices.SortStableFunc(impacts, func(a, b FeatureImpact) int {
		ai, bi := math.Abs(a.Impact), math.Abs(b.Impact)
		switch {
		case ai > bi:
			return -1
		case ai < bi:
			return 1
		default:
			return 0
		}
	})
}

// Prediction is a stored screening result. Only ReportURL changes after creation.
type Prediction struct {
	ID            uint                               `gorm:"primaryKey" json:"id"`
	UserID        uint                               `gorm:"not null;index" json:"userId"`
	InputFeatures datatypes.JSONType[ScreeningInput] `gorm:"not null" json:"inputFeatures"`
	Prediction    int                                `gorm:"not null;check:predictions_prediction_check,prediction IN (0, 1)" json:"prediction"`
	Probabilities datatypes.JSONType[Probabilities]  `gorm:"not null" json:"probabilities"`
	TopFeatures   datatypes.JSONSlice[FeatureImpact] `json:"topFeatures"`
	ReportURL     string                             `json:"reportUrl,omitempty"`
	CreatedAt     time.Time                          `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time                          `json:"updatedAt"`
}

// IsPositive reports whether the screening flagged PCOS.
func (p *Prediction) IsPositive() bool {
	return p.Prediction == 1
}
