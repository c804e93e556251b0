package repository

import (
	"context"

	"pcoscare/internal/models"

	"gorm.io/gorm"
)

// PredictionRepository stores screening results.
type PredictionRepository interface {
	Create(ctx context.Context, p *models.Prediction) error
	GetForUser(ctx context.Context, id, userID uint) (*models.Prediction, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Prediction, error)
	SetReportURL(ctx context.Context, id uint, url string) error
}

type predictionRepository struct {
	db *gorm.DB
}

// NewPredictionRepository returns a gorm-backed PredictionRepository.
func NewPredictionRepository(db *gorm.DB) PredictionRepository {
	return &predictionRepository{db: db}
}

func (r *predictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetForUser loads a prediction only if userID owns it; other owners get NotFound.
func (r *predictionRepository) GetForUser(ctx context.Context, id, userID uint) (*models.Prediction, error) {
	var p models.Prediction
	err := readDB(r.db).WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&p).Error
	if err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Prediction", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &p, nil
}

// ListByUser returns the user's predictions newest first.
func (r *predictionRepository) ListByUser(ctx context.Context, userID uint) ([]models.Prediction, error) {
	predictions := []models.Prediction{}
	err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&predictions).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return predictions, nil
}

func (r *predictionRepository) SetReportURL(ctx context.Context, id uint, url string) error {
	res := r.db.WithContext(ctx).Model(&models.Prediction{}).Where("id = ?", id).Update("report_url", url)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Prediction", id)
	}
	return nil
}
