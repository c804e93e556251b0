package repository

import (
	"context"

	"pcoscare/internal/models"

	"gorm.io/gorm"
)

// AppointmentRepository stores consultation bookings.
type AppointmentRepository interface {
	Create(ctx context.Context, a *models.Appointment) error
	GetByID(ctx context.Context, id uint) (*models.Appointment, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Appointment, error)
	ListAll(ctx context.Context) ([]models.Appointment, error)
	// CompareAndSetStatus moves an appointment from `from` to `to` only if it
	// is still in `from`. It reports whether the row changed.
	CompareAndSetStatus(ctx context.Context, id uint, from, to models.AppointmentStatus) (bool, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository returns a gorm-backed AppointmentRepository.
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func expertSummary(db *gorm.DB) *gorm.DB {
	return db.Unscoped().Select("id", "name", "specialty", "location", "image_url")
}

func (r *appointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	if a.Status == "" {
		a.Status = models.AppointmentPending
	}
	if err := r.db.WithContext(ctx).Omit("Expert", "User").Create(a).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var a models.Appointment
	if err := r.db.WithContext(ctx).Preload("Expert", expertSummary).First(&a, id).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Appointment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &a, nil
}

func (r *appointmentRepository) ListByUser(ctx context.Context, userID uint) ([]models.Appointment, error) {
	out := []models.Appointment{}
	err := readDB(r.db).WithContext(ctx).
		Preload("Expert", expertSummary).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *appointmentRepository) ListAll(ctx context.Context) ([]models.Appointment, error) {
	out := []models.Appointment{}
	err := readDB(r.db).WithContext(ctx).
		Preload("Expert", expertSummary).
		Preload("User").
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *appointmentRepository) CompareAndSetStatus(ctx context.Context, id uint, from, to models.AppointmentStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}
