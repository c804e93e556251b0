package validation

import (
	"encoding/json"
	"math"
	"testing"

	"pcoscare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeScreening(t *testing.T) *models.ScreeningInput {
	t.Helper()
	var in models.ScreeningInput
	require.NoError(t, json.Unmarshal([]byte(`{
		" Age (yrs)": 28, "Weight (Kg)": 62, "Height(Cm) ": 160, "BMI": 24.2,
		"Pulse rate(bpm) ": 76, "RR (breaths/min)": 18, "Hb(g/dl)": 11.5,
		"Cycle(R/I)": 1, "Cycle length(days)": 5, "Marraige Status (Yrs)": 3,
		"Pregnant(Y/N)": 0, "No. of abortions": 0, "Weight gain(Y/N)": 1,
		"hair growth(Y/N)": 0, "Skin darkening (Y/N)": 0, "Hair loss(Y/N)": 1,
		"Pimples(Y/N)": 1, "Fast food (Y/N)": 1, "Reg.Exercise(Y/N)": 0
	}`), &in))
	return &in
}

func TestValidateScreening_Missing(t *testing.T) {
	in := completeScreening(t)
	in.Hemoglobin = nil
	in.Pimples = nil

	err := ValidateScreening(in, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Hb(g/dl)")
	assert.Contains(t, err.Error(), "Pimples(Y/N)")
}

func TestValidateScreening_LenientAcceptsOddValues(t *testing.T) {
	in := completeScreening(t)
	age := 150.0
	in.Age = &age
	assert.NoError(t, ValidateScreening(in, false))
}

func TestValidateScreening_Strict(t *testing.T) {
	in := completeScreening(t)
	assert.NoError(t, ValidateScreening(in, true))

	age := 150.0
	pregnant := 2.0
	in.Age = &age
	in.Pregnant = &pregnant

	err := ValidateScreening(in, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Age (yrs) must be between 10 and 80")
	assert.Contains(t, err.Error(), "Pregnant(Y/N) must be 0 or 1")
}

func TestScreeningRanges_CoverEveryContinuousFeature(t *testing.T) {
	for _, f := range models.ScreeningFeatures {
		if f.Binary {
			continue
		}
		_, ok := ScreeningRanges[f.Name]
		assert.True(t, ok, "no range for %s", f.Name)
	}
}

func TestValidateScreening_RejectsNonFinite(t *testing.T) {
	for _, strict := range []bool{false, true} {
		in := completeScreening(t)
		age := math.NaN()
		bmi := math.Inf(1)
		in.Age = &age
		in.BMI = &bmi

		err := ValidateScreening(in, strict)
		require.Error(t, err, "strict=%v", strict)
		assert.Contains(t, err.Error(), "Age (yrs) must be a finite number")
		assert.Contains(t, err.Error(), "BMI must be a finite number")
	}
}
