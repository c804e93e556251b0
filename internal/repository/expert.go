package repository

import (
	"context"
	"strings"

	"pcoscare/internal/models"

	"gorm.io/gorm"
)

// ExpertFilter narrows the expert directory.
type ExpertFilter struct {
	Specialty string
	// Location matches as a case-insensitive substring.
	Location string
}

// ExpertRepository manages the consultation directory.
type ExpertRepository interface {
	List(ctx context.Context, f ExpertFilter) ([]models.Expert, error)
	GetByID(ctx context.Context, id uint) (*models.Expert, error)
	Create(ctx context.Context, e *models.Expert) error
	Update(ctx context.Context, e *models.Expert) error
	Delete(ctx context.Context, id uint) error
}

type expertRepository struct {
	db *gorm.DB
}

// NewExpertRepository returns a gorm-backed ExpertRepository.
func NewExpertRepository(db *gorm.DB) ExpertRepository {
	return &expertRepository{db: db}
}

func (r *expertRepository) List(ctx context.Context, f ExpertFilter) ([]models.Expert, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.Expert{})
	if f.Specialty != "" {
		q = q.Where("specialty = ?", f.Specialty)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		q = q.Where("LOWER(location) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(loc))+"%")
	}

	experts := []models.Expert{}
	if err := q.Order("rating DESC, name ASC").Find(&experts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return experts, nil
}

func (r *expertRepository) GetByID(ctx context.Context, id uint) (*models.Expert, error) {
	var e models.Expert
	if err := readDB(r.db).WithContext(ctx).First(&e, id).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Expert", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &e, nil
}

func (r *expertRepository) Create(ctx context.Context, e *models.Expert) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *expertRepository) Update(ctx context.Context, e *models.Expert) error {
	if err := r.db.WithContext(ctx).Save(e).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *expertRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Expert{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Expert", id)
	}
	return nil
}

// escapeLike neutralises LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
