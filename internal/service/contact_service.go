package service

import (
	"context"
	"strings"

	"pcoscare/internal/models"
	"pcoscare/internal/repository"
	"pcoscare/internal/validation"
)

type ContactService struct {
	contactRepo repository.ContactRepository
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func NewContactService(contactRepo repository.ContactRepository) *ContactService {
	return &ContactService{contactRepo: contactRepo}
}

// Submit stores a message from the public contact form with status new.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*models.Contact, error) {
	c := &models.Contact{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
		Status:  models.ContactNew,
	}
	if c.Name == "" || c.Email == "" || c.Subject == "" || c.Message == "" {
		return nil, models.NewValidationError("Please fill in all fields")
	}
	if err := validation.ValidateEmail(c.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.contactRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactService) List(ctx context.Context) ([]models.Contact, error) {
	return s.contactRepo.List(ctx)
}

func (s *ContactService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Contact, error) {
	st := models.ContactStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return nil, models.NewValidationError("Invalid status")
	}
	return s.contactRepo.UpdateStatus(ctx, id, st)
}

func (s *ContactService) Delete(ctx context.Context, id uint) error {
	return s.contactRepo.Delete(ctx, id)
}
