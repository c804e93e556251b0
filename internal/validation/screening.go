package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"pcoscare/internal/models"
)

// Range is an inclusive bound for a screening feature.
type Range struct {
	Min, Max float64
}

// ScreeningRanges are the physiological bounds applied when strict screening is on.
// Binary features are checked separately and must be 0 or 1.
var ScreeningRanges = map[string]Range{
	"age":             {10, 80},
	"weight":          {25, 250},
	"height":          {100, 230},
	"bmi":             {10, 70},
	"pulseRate":       {30, 200},
	"respiratoryRate": {8, 40},
	"hemoglobin":      {3, 25},
	"cycleLength":     {0, 60},
	"yearsMarried":    {0, 60},
	"abortions":       {0, 20},
}

// ValidateScreening reports missing or non-finite features and, when strict is set,
// values outside ScreeningRanges or binary features other than 0 and 1.
func ValidateScreening(in *models.ScreeningInput, strict bool) error {
	if missing := in.Missing(); len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	var problems []string
	for _, f := range models.ScreeningFeatures {
		v, _ := f.Value(in)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			problems = append(problems, fmt.Sprintf("%s must be a finite number", strings.TrimSpace(f.WireKey)))
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	if !strict {
		return nil
	}

	for _, f := range models.ScreeningFeatures {
		v, _ := f.Value(in)
		label := strings.TrimSpace(f.WireKey)
		if f.Binary {
			if v != 0 && v != 1 {
				problems = append(problems, fmt.Sprintf("%s must be 0 or 1", label))
			}
			continue
		}
		if r, ok := ScreeningRanges[f.Name]; ok && (v < r.Min || v > r.Max) {
			problems = append(problems, fmt.Sprintf("%s must be between %g and %g", label, r.Min, r.Max))
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
