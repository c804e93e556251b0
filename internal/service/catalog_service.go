package service

import (
	"context"
	"strings"
	"time"

	"pcoscare/internal/models"
	"pcoscare/internal/repository"
	"pcoscare/internal/validation"
)

// CatalogService manages the admin-curated public content: the expert
// directory, community events and testimonials.
type CatalogService struct {
	expertRepo      repository.ExpertRepository
	eventRepo       repository.EventRepository
	testimonialRepo repository.TestimonialRepository
}

// ExpertInput is both the create and the partial-update payload for an
// expert. Nil fields are left unchanged on update.
type ExpertInput struct {
	Name         *string  `json:"name"`
	Specialty    *string  `json:"specialty"`
	Location     *string  `json:"location"`
	ContactEmail *string  `json:"contactEmail"`
	ContactPhone *string  `json:"contactPhone"`
	Bio          *string  `json:"bio"`
	ImageURL     *string  `json:"imageUrl"`
	Rating       *float64 `json:"rating"`
}

// EventInput is the create and partial-update payload for an event. Date
// accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
type EventInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	EventType   *string `json:"eventType"`
	ImageURL    *string `json:"imageUrl"`
	Status      *string `json:"status"`
}

// TestimonialInput is the create and partial-update payload for a testimonial.
type TestimonialInput struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Quote    *string `json:"quote"`
	ImageURL *string `json:"imageUrl"`
	IsActive *bool   `json:"isActive"`
}

func NewCatalogService(
	expertRepo repository.ExpertRepository,
	eventRepo repository.EventRepository,
	testimonialRepo repository.TestimonialRepository,
) *CatalogService {
	return &CatalogService{
		expertRepo:      expertRepo,
		eventRepo:       eventRepo,
		testimonialRepo: testimonialRepo,
	}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// Experts

func (s *CatalogService) ListExperts(ctx context.Context, specialty, location string) ([]models.Expert, error) {
	return s.expertRepo.List(ctx, repository.ExpertFilter{
		Specialty: strings.TrimSpace(specialty),
		Location:  location,
	})
}

func (s *CatalogService) GetExpert(ctx context.Context, id uint) (*models.Expert, error) {
	return s.expertRepo.GetByID(ctx, id)
}

func (s *CatalogService) CreateExpert(ctx context.Context, in ExpertInput) (*models.Expert, error) {
	if str(in.Name) == "" || str(in.Specialty) == "" || str(in.Location) == "" {
		return nil, models.NewValidationError("Please provide name, specialty, and location")
	}
	expert := &models.Expert{}
	if err := applyExpertInput(expert, in); err != nil {
		return nil, err
	}
	if err := s.expertRepo.Create(ctx, expert); err != nil {
		return nil, err
	}
	return expert, nil
}

func (s *CatalogService) UpdateExpert(ctx context.Context, id uint, in ExpertInput) (*models.Expert, error) {
	expert, err := s.expertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyExpertInput(expert, in); err != nil {
		return nil, err
	}
	if err := s.expertRepo.Update(ctx, expert); err != nil {
		return nil, err
	}
	return expert, nil
}

func (s *CatalogService) DeleteExpert(ctx context.Context, id uint) error {
	return s.expertRepo.Delete(ctx, id)
}

// applyExpertInput merges in into e. Empty required fields are ignored so a
// partial update cannot blank them.
func applyExpertInput(e *models.Expert, in ExpertInput) error {
	if v := str(in.Name); v != "" {
		e.Name = v
	}
	if v := str(in.Specialty); v != "" {
		if !validation.OneOf(v, models.Specialties) {
			return models.NewValidationError("Invalid specialty")
		}
		e.Specialty = v
	}
	if v := str(in.Location); v != "" {
		e.Location = v
	}
	if in.ContactEmail != nil {
		e.ContactEmail = str(in.ContactEmail)
	}
	if in.ContactPhone != nil {
		e.ContactPhone = str(in.ContactPhone)
	}
	if in.Bio != nil {
		e.Bio = str(in.Bio)
	}
	if in.ImageURL != nil {
		e.ImageURL = str(in.ImageURL)
	}
	if in.Rating != nil {
		if err := validation.ValidateRating(*in.Rating); err != nil {
			return models.NewValidationError(err.Error())
		}
		e.Rating = *in.Rating
	}
	return nil
}

// Events

// ListEvents filters by status. An empty status means upcoming events and
// "all" disables the filter.
func (s *CatalogService) ListEvents(ctx context.Context, status string) ([]models.Event, error) {
	status = strings.TrimSpace(status)
	switch status {
	case "":
		status = models.EventUpcoming
	case "all":
		status = ""
	}
	return s.eventRepo.List(ctx, status)
}

func (s *CatalogService) CreateEvent(ctx context.Context, in EventInput) (*models.Event, error) {
	if str(in.Title) == "" || str(in.Description) == "" || str(in.Date) == "" || str(in.EventType) == "" {
		return nil, models.NewValidationError("Please provide all required fields")
	}
	event := &models.Event{Status: models.EventUpcoming}
	if err := applyEventInput(event, in); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *CatalogService) UpdateEvent(ctx context.Context, id uint, in EventInput) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyEventInput(event, in); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *CatalogService) DeleteEvent(ctx context.Context, id uint) error {
	return s.eventRepo.Delete(ctx, id)
}

func applyEventInput(e *models.Event, in EventInput) error {
	if v := str(in.Title); v != "" {
		e.Title = v
	}
	if v := str(in.Description); v != "" {
		e.Description = v
	}
	if v := str(in.Date); v != "" {
		date, err := parseEventDate(v)
		if err != nil {
			return err
		}
		e.Date = date
	}
	if v := str(in.EventType); v != "" {
		if !validation.OneOf(v, models.EventTypes) {
			return models.NewValidationError("Invalid event type")
		}
		e.EventType = v
	}
	if in.ImageURL != nil {
		e.ImageURL = str(in.ImageURL)
	}
	if v := str(in.Status); v != "" {
		if !validation.OneOf(v, models.EventStatuses) {
			return models.NewValidationError("Invalid status")
		}
		e.Status = v
	}
	return nil
}

func parseEventDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	return time.Time{}, models.NewValidationError("Invalid date, expected YYYY-MM-DD or RFC 3339")
}

// Testimonials

func (s *CatalogService) ListTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	return s.testimonialRepo.ListActive(ctx)
}

func (s *CatalogService) CreateTestimonial(ctx context.Context, in TestimonialInput) (*models.Testimonial, error) {
	if str(in.Name) == "" || str(in.Location) == "" || str(in.Quote) == "" {
		return nil, models.NewValidationError("Please provide name, location, and quote")
	}
	t := &models.Testimonial{
		Name:     str(in.Name),
		Location: str(in.Location),
		Quote:    str(in.Quote),
		ImageURL: str(in.ImageURL),
		IsActive: true,
	}
	if err := s.testimonialRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *CatalogService) UpdateTestimonial(ctx context.Context, id uint, in TestimonialInput) (*models.Testimonial, error) {
	t, err := s.testimonialRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v := str(in.Name); v != "" {
		t.Name = v
	}
	if v := str(in.Location); v != "" {
		t.Location = v
	}
	if v := str(in.Quote); v != "" {
		t.Quote = v
	}
	if in.ImageURL != nil {
		t.ImageURL = str(in.ImageURL)
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if err := s.testimonialRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *CatalogService) DeleteTestimonial(ctx context.Context, id uint) error {
	return s.testimonialRepo.Delete(ctx, id)
}
