package server

import (
	"pcoscare/internal/models"
	"pcoscare/internal/notifications"
	"pcoscare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateContact handles POST /api/contact
// @Summary Send a message to the team
// @Tags contact
// @Accept json
// @Produce json
// @Param request body service.ContactInput true "Message"
// @Success 201 {object} object{message=string,contact=models.Contact}
// @Failure 400 {object} models.ErrorResponse
// @Router /contact [post]
func (s *Server) CreateContact(c *fiber.Ctx) error {
	var in service.ContactInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	contact, err := s.contactService.Submit(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	s.notifyAdmins(c.UserContext(), notifications.Event{
		Type:    notifications.EventContactReceived,
		ID:      contact.ID,
		Summary: contact.Subject,
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Message sent successfully!",
		"contact": contact,
	})
}

// GetContacts handles GET /api/contact
func (s *Server) GetContacts(c *fiber.Ctx) error {
	contacts, err := s.contactService.List(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(contacts)
}

// UpdateContactStatus handles PATCH /api/contact/:id
func (s *Server) UpdateContactStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	contact, err := s.contactService.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(contact)
}

// DeleteContact handles DELETE /api/contact/:id
func (s *Server) DeleteContact(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.contactService.Delete(c.UserContext(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message deleted"})
}
