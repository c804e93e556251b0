package repository

import (
	"context"

	"pcoscare/internal/models"

	"gorm.io/gorm"
)

// TestimonialRepository manages member quotes shown on the public site.
type TestimonialRepository interface {
	ListActive(ctx context.Context) ([]models.Testimonial, error)
	GetByID(ctx context.Context, id uint) (*models.Testimonial, error)
	Create(ctx context.Context, t *models.Testimonial) error
	Update(ctx context.Context, t *models.Testimonial) error
	Delete(ctx context.Context, id uint) error
}

type testimonialRepository struct {
	db *gorm.DB
}

// NewTestimonialRepository returns a gorm-backed TestimonialRepository.
func NewTestimonialRepository(db *gorm.DB) TestimonialRepository {
	return &testimonialRepository{db: db}
}

func (r *testimonialRepository) ListActive(ctx context.Context) ([]models.Testimonial, error) {
	out := []models.Testimonial{}
	err := readDB(r.db).WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *testimonialRepository) GetByID(ctx context.Context, id uint) (*models.Testimonial, error) {
	var t models.Testimonial
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Testimonial", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &t, nil
}

func (r *testimonialRepository) Create(ctx context.Context, t *models.Testimonial) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Update saves every column so that IsActive can be switched off.
func (r *testimonialRepository) Update(ctx context.Context, t *models.Testimonial) error {
	if err := r.db.WithContext(ctx).Save(t).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *testimonialRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Testimonial{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Testimonial", id)
	}
	return nil
}
