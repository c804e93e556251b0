// Package service holds the business rules that sit between HTTP handlers and repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pcoscare/internal/featureflags"
	"pcoscare/internal/middleware"
	"pcoscare/internal/mlclient"
	"pcoscare/internal/models"
	"pcoscare/internal/observability"
	"pcoscare/internal/repository"
	"pcoscare/internal/validation"

	"gorm.io/datatypes"
)

// Screener is the inference service as seen by PredictionService.
type Screener interface {
	Predict(ctx context.Context, in *models.ScreeningInput) (*mlclient.PredictResult, error)
	GenerateReport(ctx context.Context, req mlclient.ReportRequest) ([]byte, error)
}

type PredictionService struct {
	predictionRepo repository.PredictionRepository
	screener       Screener
	flags          *featureflags.Manager
}

// Report is a rendered PDF for one stored prediction.
type Report struct {
	PredictionID uint
	PDF          []byte
}

func NewPredictionService(
	predictionRepo repository.PredictionRepository,
	screener Screener,
	flags *featureflags.Manager,
) *PredictionService {
	return &PredictionService{
		predictionRepo: predictionRepo,
		screener:       screener,
		flags:          flags,
	}
}

// CreatePrediction validates in, scores it with the inference service and
// stores the result. Nothing is stored when the inference call fails.
func (s *PredictionService) CreatePrediction(ctx context.Context, userID uint, in *models.ScreeningInput) (*models.Prediction, error) {
	if in == nil {
		return nil, models.NewValidationError("Screening data is required")
	}
	strict := s.flags.Enabled(featureflags.StrictScreening, userID)
	if err := validation.ValidateScreening(in, strict); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	result, err := s.screener.Predict(ctx, in)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "prediction request failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()))
		return nil, models.NewUpstreamError("Error making prediction", err, upstreamBody(err))
	}

	impacts := make([]models.FeatureImpact, len(result.TopFeatures))
	copy(impacts, result.TopFeatures)
	models.SortByImpact(impacts)

	prediction := &models.Prediction{
		UserID:        userID,
		InputFeatures: datatypes.NewJSONType(*in),
		Prediction:    result.Prediction,
		Probabilities: datatypes.NewJSONType(result.Probabilities),
		TopFeatures:   datatypes.NewJSONSlice(impacts),
	}
	if err := s.predictionRepo.Create(ctx, prediction); err != nil {
		return nil, err
	}

	observability.RecordScreening(prediction.Prediction)
	return prediction, nil
}

func (s *PredictionService) GetPrediction(ctx context.Context, id, userID uint) (*models.Prediction, error) {
	return s.predictionRepo.GetForUser(ctx, id, userID)
}

func (s *PredictionService) ListHistory(ctx context.Context, userID uint) ([]models.Prediction, error) {
	return s.predictionRepo.ListByUser(ctx, userID)
}

// GenerateReport re-sends a stored prediction to the report renderer. A
// failed render leaves the prediction untouched.
func (s *PredictionService) GenerateReport(ctx context.Context, id, userID uint) (*Report, error) {
	prediction, err := s.predictionRepo.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	req := mlclient.ReportRequest{
		Prediction:    prediction.Prediction,
		Probabilities: prediction.Probabilities.Data(),
		TopFeatures:   models.FeaturePairs(prediction.TopFeatures),
	}
	pdf, err := s.screener.GenerateReport(ctx, req)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "report generation failed",
			slog.Uint64("prediction_id", uint64(id)),
			slog.String("error", err.Error()))
		return nil, models.NewUpstreamError("Error generating report", err, nil)
	}

	reportURL := fmt.Sprintf("/api/predictions/%d/report", prediction.ID)
	if prediction.ReportURL != reportURL {
		if err := s.predictionRepo.SetReportURL(ctx, prediction.ID, reportURL); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to record report url",
				slog.Uint64("prediction_id", uint64(id)),
				slog.String("error", err.Error()))
		}
	}

	return &Report{PredictionID: prediction.ID, PDF: pdf}, nil
}

// upstreamBody returns what the client should see of a collaborator failure.
func upstreamBody(err error) any {
	var mlErr *mlclient.Error
	if errors.As(err, &mlErr) && mlErr.Body != nil {
		return mlErr.Body
	}
	return err.Error()
}
