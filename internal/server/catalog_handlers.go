package server

import (
	"pcoscare/internal/models"
	"pcoscare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetExperts handles GET /api/experts
// @Summary Expert directory
// @Description Lists experts, optionally filtered by specialty and a case-insensitive location substring
// @Tags experts
// @Produce json
// @Param specialty query string false "Specialty"
// @Param location query string false "Location substring"
// @Success 200 {array} models.Expert
// @Router /experts [get]
func (s *Server) GetExperts(c *fiber.Ctx) error {
	experts, err := s.catalogService.ListExperts(c.UserContext(), c.Query("specialty"), c.Query("location"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(experts)
}

// GetExpert handles GET /api/experts/:id
func (s *Server) GetExpert(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	expert, err := s.catalogService.GetExpert(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(expert)
}

// CreateExpert handles POST /api/experts
func (s *Server) CreateExpert(c *fiber.Ctx) error {
	var in service.ExpertInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	expert, err := s.catalogService.CreateExpert(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(expert)
}

// UpdateExpert handles PUT /api/experts/:id
func (s *Server) UpdateExpert(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.ExpertInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	expert, err := s.catalogService.UpdateExpert(c.UserContext(), id, in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(expert)
}

// DeleteExpert handles DELETE /api/experts/:id
func (s *Server) DeleteExpert(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.catalogService.DeleteExpert(c.UserContext(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Expert deleted successfully"})
}

// GetEvents handles GET /api/events?status=
// @Summary Community events
// @Description Upcoming events by default; status=all lists every event
// @Tags events
// @Produce json
// @Param status query string false "upcoming, ongoing, completed or all"
// @Success 200 {array} models.Event
// @Router /events [get]
func (s *Server) GetEvents(c *fiber.Ctx) error {
	events, err := s.catalogService.ListEvents(c.UserContext(), c.Query("status"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(events)
}

// CreateEvent handles POST /api/events
func (s *Server) CreateEvent(c *fiber.Ctx) error {
	var in service.EventInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	event, err := s.catalogService.CreateEvent(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// UpdateEvent handles PUT /api/events/:id
func (s *Server) UpdateEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.EventInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	event, err := s.catalogService.UpdateEvent(c.UserContext(), id, in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(event)
}

// DeleteEvent handles DELETE /api/events/:id
func (s *Server) DeleteEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.catalogService.DeleteEvent(c.UserContext(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Event deleted successfully"})
}

// GetTestimonials handles GET /api/testimonials
// @Summary Active testimonials
// @Tags testimonials
// @Produce json
// @Success 200 {array} models.Testimonial
// @Router /testimonials [get]
func (s *Server) GetTestimonials(c *fiber.Ctx) error {
	testimonials, err := s.catalogService.ListTestimonials(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(testimonials)
}

// CreateTestimonial handles POST /api/testimonials
func (s *Server) CreateTestimonial(c *fiber.Ctx) error {
	var in service.TestimonialInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	testimonial, err := s.catalogService.CreateTestimonial(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(testimonial)
}

// UpdateTestimonial handles PUT /api/testimonials/:id
func (s *Server) UpdateTestimonial(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.TestimonialInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	testimonial, err := s.catalogService.UpdateTestimonial(c.UserContext(), id, in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(testimonial)
}

// DeleteTestimonial handles DELETE /api/testimonials/:id
func (s *Server) DeleteTestimonial(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.catalogService.DeleteTestimonial(c.UserContext(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Testimonial deleted successfully"})
}
