package service

import (
	"context"
	"fmt"
	"strings"

	"pcoscare/internal/models"
	"pcoscare/internal/observability"
	"pcoscare/internal/repository"
	"pcoscare/internal/validation"
)

type AppointmentService struct {
	appointmentRepo repository.AppointmentRepository
	expertRepo      repository.ExpertRepository
}

type BookAppointmentInput struct {
	User     *models.User
	ExpertID uint
	Date     string
	TimeSlot string
	Notes    string
}

func NewAppointmentService(
	appointmentRepo repository.AppointmentRepository,
	expertRepo repository.ExpertRepository,
) *AppointmentService {
	return &AppointmentService{
		appointmentRepo: appointmentRepo,
		expertRepo:      expertRepo,
	}
}

// Book creates a Pending appointment for in.User with the chosen expert.
func (s *AppointmentService) Book(ctx context.Context, in BookAppointmentInput) (*models.Appointment, error) {
	in.Date = strings.TrimSpace(in.Date)
	in.TimeSlot = strings.TrimSpace(in.TimeSlot)
	if in.User == nil || in.ExpertID == 0 || in.Date == "" || in.TimeSlot == "" {
		return nil, models.NewValidationError("Please provide all required fields")
	}
	if err := validation.ValidateDate(in.Date); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.expertRepo.GetByID(ctx, in.ExpertID); err != nil {
		return nil, err
	}

	appointment := &models.Appointment{
		ExpertID:  in.ExpertID,
		UserID:    in.User.ID,
		UserName:  in.User.Name,
		UserEmail: in.User.Email,
		Date:      in.Date,
		TimeSlot:  in.TimeSlot,
		Notes:     strings.TrimSpace(in.Notes),
		Status:    models.AppointmentPending,
	}
	if err := s.appointmentRepo.Create(ctx, appointment); err != nil {
		return nil, err
	}
	return s.appointmentRepo.GetByID(ctx, appointment.ID)
}

func (s *AppointmentService) ListMine(ctx context.Context, userID uint) ([]models.Appointment, error) {
	return s.appointmentRepo.ListByUser(ctx, userID)
}

func (s *AppointmentService) ListAll(ctx context.Context) ([]models.Appointment, error) {
	return s.appointmentRepo.ListAll(ctx)
}

// UpdateStatus moves an appointment along the status machine. Unknown
// statuses are a validation error; known but disallowed moves conflict.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Appointment, error) {
	to := models.AppointmentStatus(status)
	if !to.Valid() {
		return nil, models.NewValidationError("Invalid status")
	}

	appointment, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := appointment.Status
	if !from.CanTransitionTo(to) {
		return nil, models.NewConflictError(fmt.Sprintf("Cannot change appointment status from %s to %s", from, to))
	}

	changed, err := s.appointmentRepo.CompareAndSetStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, models.NewConflictError("Appointment status was changed by another request")
	}
	observability.AppointmentTransitions.WithLabelValues(string(from), string(to)).Inc()

	return s.appointmentRepo.GetByID(ctx, id)
}
