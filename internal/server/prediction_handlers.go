package server

import (
	"fmt"
	"time"

	"pcoscare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// predictionView is the client shape of a stored screening. Top features go
// out as [feature, impact] pairs.
type predictionView struct {
	ID            uint                  `json:"id"`
	UserID        uint                  `json:"userId"`
	InputFeatures models.ScreeningInput `json:"inputFeatures"`
	Prediction    int                   `json:"prediction"`
	Probabilities models.Probabilities  `json:"probabilities"`
	TopFeatures   models.FeaturePairs   `json:"topFeatures"`
	ReportURL     string                `json:"reportUrl,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
}

func newPredictionView(p *models.Prediction) predictionView {
	top := models.FeaturePairs(p.TopFeatures)
	if top == nil {
		top = models.FeaturePairs{}
	}
	return predictionView{
		ID:            p.ID,
		UserID:        p.UserID,
		InputFeatures: p.InputFeatures.Data(),
		Prediction:    p.Prediction,
		Probabilities: p.Probabilities.Data(),
		TopFeatures:   top,
		ReportURL:     p.ReportURL,
		CreatedAt:     p.CreatedAt,
	}
}

// CreatePrediction handles POST /api/predictions
// @Summary Run a PCOS screening
// @Description Scores the feature vector with the inference service and stores the result
// @Tags predictions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ScreeningInput true "Screening features"
// @Success 200 {object} predictionView
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /predictions [post]
func (s *Server) CreatePrediction(c *fiber.Ctx) error {
	var in models.ScreeningInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(fmt.Sprintf("Invalid screening data: %v", err)))
	}

	prediction, err := s.predictionService.CreatePrediction(c.UserContext(), currentUserID(c), &in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newPredictionView(prediction))
}

// GetPredictionHistory handles GET /api/predictions/history
// @Summary Screening history
// @Tags predictions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} predictionView
// @Router /predictions/history [get]
func (s *Server) GetPredictionHistory(c *fiber.Ctx) error {
	predictions, err := s.predictionService.ListHistory(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	views := make([]predictionView, 0, len(predictions))
	for i := range predictions {
		views = append(views, newPredictionView(&predictions[i]))
	}
	return c.JSON(views)
}

// GetPrediction handles GET /api/predictions/:id
// @Summary One stored screening
// @Tags predictions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Prediction ID"
// @Success 200 {object} predictionView
// @Failure 404 {object} models.ErrorResponse
// @Router /predictions/{id} [get]
func (s *Server) GetPrediction(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	prediction, err := s.predictionService.GetPrediction(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newPredictionView(prediction))
}

// GeneratePredictionReport handles POST /api/predictions/:id/report
// @Summary Download a PDF report
// @Tags predictions
// @Produce application/pdf
// @Security BearerAuth
// @Param id path int true "Prediction ID"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /predictions/{id}/report [post]
func (s *Server) GeneratePredictionReport(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	report, err := s.predictionService.GenerateReport(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=pcos_report_%d.pdf", report.PredictionID))
	return c.Send(report.PDF)
}
