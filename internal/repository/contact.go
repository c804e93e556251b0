package repository

import (
	"context"

	"pcoscare/internal/models"

	"gorm.io/gorm"
)

// ContactRepository stores support messages from the public contact form.
type ContactRepository interface {
	Create(ctx context.Context, c *models.Contact) error
	// List returns every message, newest first.
	List(ctx context.Context) ([]models.Contact, error)
	UpdateStatus(ctx context.Context, id uint, status models.ContactStatus) (*models.Contact, error)
	Delete(ctx context.Context, id uint) error
}

type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository returns a gorm-backed ContactRepository.
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, c *models.Contact) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *contactRepository) List(ctx context.Context) ([]models.Contact, error) {
	out := []models.Contact{}
	if err := readDB(r.db).WithContext(ctx).Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *contactRepository) UpdateStatus(ctx context.Context, id uint, status models.ContactStatus) (*models.Contact, error) {
	var c models.Contact
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return err
		}
		return tx.Model(&c).Update("status", status).Error
	})
	if err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &c, nil
}

func (r *contactRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Contact{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Message", id)
	}
	return nil
}
