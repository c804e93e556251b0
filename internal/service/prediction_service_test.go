package service

import (
	"context"
	"errors"
	"testing"

	"pcoscare/internal/featureflags"
	"pcoscare/internal/mlclient"
	"pcoscare/internal/models"
	"pcoscare/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func okScreener() *screenerStub {
	return &screenerStub{
		predictFn: func(_ context.Context, _ *models.ScreeningInput) (*mlclient.PredictResult, error) {
			return &mlclient.PredictResult{
				Prediction:    1,
				Probabilities: models.Probabilities{NoPCOS: 0.2, PCOS: 0.8},
				TopFeatures: models.FeaturePairs{
					{Feature: "BMI", Impact: 0.12},
					{Feature: "Cycle(R/I)", Impact: -0.31},
					{Feature: "Weight (Kg)", Impact: 0.05},
				},
			}, nil
		},
		reportFn: func(_ context.Context, _ mlclient.ReportRequest) ([]byte, error) {
			return []byte("%PDF-1.4"), nil
		},
	}
}

func TestPredictionService_CreatePrediction(t *testing.T) {
	var stored *models.Prediction
	repo := &predictionRepoStub{
		createFn: func(_ context.Context, p *models.Prediction) error {
			p.ID = 7
			stored = p
			return nil
		},
	}
	screener := okScreener()
	svc := NewPredictionService(repo, screener, nil)

	in := testutil.FullScreening()
	prediction, err := svc.CreatePrediction(context.Background(), 3, &in)
	require.NoError(t, err)
	require.Same(t, stored, prediction)

	assert.Equal(t, uint(3), prediction.UserID)
	assert.True(t, prediction.IsPositive())
	assert.InDelta(t, 0.8, prediction.Probabilities.Data().PCOS, 1e-9)

	features := []string{}
	for _, fi := range prediction.TopFeatures {
		features = append(features, fi.Feature)
	}
	assert.Equal(t, []string{"Cycle(R/I)", "BMI", "Weight (Kg)"}, features)

	input := prediction.InputFeatures.Data()
	age, ok := models.ScreeningFeatures[0].Value(&input)
	require.True(t, ok)
	assert.Equal(t, 28.0, age)
}

func TestPredictionService_CreatePrediction_MissingFieldSkipsInference(t *testing.T) {
	repo := &predictionRepoStub{
		createFn: func(context.Context, *models.Prediction) error {
			t.Fatal("nothing should be stored")
			return nil
		},
	}
	screener := okScreener()
	svc := NewPredictionService(repo, screener, nil)

	in := testutil.FullScreening()
	in.BMI = nil
	_, err := svc.CreatePrediction(context.Background(), 1, &in)
	assertValidationError(t, err)
	assert.Contains(t, err.Error(), "BMI")
	assert.Zero(t, screener.calls)

	_, err = svc.CreatePrediction(context.Background(), 1, nil)
	assertValidationError(t, err)
}

func TestPredictionService_CreatePrediction_StrictRanges(t *testing.T) {
	repo := &predictionRepoStub{createFn: func(context.Context, *models.Prediction) error { return nil }}

	in := testutil.FullScreening()
	weird := 400.0
	in.Weight = &weird

	lenient := NewPredictionService(repo, okScreener(), nil)
	_, err := lenient.CreatePrediction(context.Background(), 1, &in)
	require.NoError(t, err)

	strictScreener := okScreener()
	strict := NewPredictionService(repo, strictScreener, featureflags.NewManager("strict_screening=on"))
	_, err = strict.CreatePrediction(context.Background(), 1, &in)
	assertValidationError(t, err)
	assert.Contains(t, err.Error(), "Weight (Kg)")
	assert.Zero(t, strictScreener.calls)
}

func TestPredictionService_CreatePrediction_UpstreamFailure(t *testing.T) {
	repo := &predictionRepoStub{
		createFn: func(context.Context, *models.Prediction) error {
			t.Fatal("nothing should be stored")
			return nil
		},
	}

	tests := []struct {
		name     string
		err      error
		wantBody any
	}{
		{
			name:     "service answered with error payload",
			err:      &mlclient.Error{Endpoint: "/predict", StatusCode: 500, Body: map[string]any{"error": "model not loaded"}},
			wantBody: map[string]any{"error": "model not loaded"},
		},
		{
			name:     "transport failure",
			err:      errors.New("connection refused"),
			wantBody: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screener := &screenerStub{
				predictFn: func(context.Context, *models.ScreeningInput) (*mlclient.PredictResult, error) {
					return nil, tt.err
				},
			}
			svc := NewPredictionService(repo, screener, nil)

			in := testutil.FullScreening()
			_, err := svc.CreatePrediction(context.Background(), 1, &in)
			require.Error(t, err)

			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "Error making prediction", appErr.Message)
			assert.Equal(t, tt.wantBody, appErr.Upstream)
			assert.Equal(t, 500, models.StatusFor(err))
		})
	}
}

func storedPrediction(id, userID uint) *models.Prediction {
	return &models.Prediction{
		ID:            id,
		UserID:        userID,
		InputFeatures: datatypes.NewJSONType(testutil.FullScreening()),
		Prediction:    0,
		Probabilities: datatypes.NewJSONType(models.Probabilities{NoPCOS: 0.9, PCOS: 0.1}),
		TopFeatures:   datatypes.NewJSONSlice([]models.FeatureImpact{{Feature: "BMI", Impact: -0.2}}),
	}
}

func TestPredictionService_GenerateReport(t *testing.T) {
	var setURL string
	repo := &predictionRepoStub{
		getForUserFn: func(_ context.Context, id, userID uint) (*models.Prediction, error) {
			return storedPrediction(id, userID), nil
		},
		setReportURLFn: func(_ context.Context, _ uint, url string) error {
			setURL = url
			return nil
		},
	}

	var sent mlclient.ReportRequest
	screener := okScreener()
	screener.reportFn = func(_ context.Context, req mlclient.ReportRequest) ([]byte, error) {
		sent = req
		return []byte("%PDF-1.4 report"), nil
	}

	svc := NewPredictionService(repo, screener, nil)
	report, err := svc.GenerateReport(context.Background(), 12, 4)
	require.NoError(t, err)

	assert.Equal(t, uint(12), report.PredictionID)
	assert.Equal(t, []byte("%PDF-1.4 report"), report.PDF)
	assert.Equal(t, "/api/predictions/12/report", setURL)
	assert.Equal(t, 0, sent.Prediction)
	assert.InDelta(t, 0.9, sent.Probabilities.NoPCOS, 1e-9)
	require.Len(t, sent.TopFeatures, 1)
	assert.Equal(t, "BMI", sent.TopFeatures[0].Feature)
}

func TestPredictionService_GenerateReport_Failures(t *testing.T) {
	t.Run("not owned", func(t *testing.T) {
		repo := &predictionRepoStub{
			getForUserFn: func(_ context.Context, id, _ uint) (*models.Prediction, error) {
				return nil, models.NewNotFoundError("Prediction", id)
			},
		}
		screener := okScreener()
		_, err := NewPredictionService(repo, screener, nil).GenerateReport(context.Background(), 1, 2)
		assertAppErrorCode(t, err, models.CodeNotFound)
		assert.Zero(t, screener.calls)
	})

	t.Run("renderer fails", func(t *testing.T) {
		repo := &predictionRepoStub{
			getForUserFn: func(_ context.Context, id, userID uint) (*models.Prediction, error) {
				return storedPrediction(id, userID), nil
			},
			setReportURLFn: func(context.Context, uint, string) error {
				t.Fatal("report url must not change on failure")
				return nil
			},
		}
		screener := okScreener()
		screener.reportFn = func(context.Context, mlclient.ReportRequest) ([]byte, error) {
			return nil, errors.New("renderer down")
		}
		_, err := NewPredictionService(repo, screener, nil).GenerateReport(context.Background(), 1, 2)
		assertAppErrorCode(t, err, models.CodeUpstream)
		assert.Contains(t, err.Error(), "Error generating report")
	})
}
