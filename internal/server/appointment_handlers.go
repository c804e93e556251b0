package server

import (
	"fmt"

	"pcoscare/internal/models"
	"pcoscare/internal/notifications"
	"pcoscare/internal/service"

	"github.com/gofiber/fiber/v2"
)

type bookAppointmentRequest struct {
	ExpertID uint   `json:"expertId"`
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
	Notes    string `json:"notes"`
}

// BookAppointment handles POST /api/appointments
// @Summary Book a consultation
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body bookAppointmentRequest true "Booking"
// @Success 201 {object} models.Appointment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /appointments [post]
func (s *Server) BookAppointment(c *fiber.Ctx) error {
	var req bookAppointmentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	appointment, err := s.appointmentService.Book(c.UserContext(), service.BookAppointmentInput{
		User:     currentUser(c),
		ExpertID: req.ExpertID,
		Date:     req.Date,
		TimeSlot: req.TimeSlot,
		Notes:    req.Notes,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	s.notifyAdmins(c.UserContext(), notifications.Event{
		Type:    notifications.EventAppointmentBooked,
		ID:      appointment.ID,
		Status:  string(appointment.Status),
		Summary: fmt.Sprintf("%s on %s at %s", appointment.UserName, appointment.Date, appointment.TimeSlot),
	})
	return c.Status(fiber.StatusCreated).JSON(appointment)
}

// GetMyAppointments handles GET /api/appointments/my
// @Summary My appointments
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Appointment
// @Router /appointments/my [get]
func (s *Server) GetMyAppointments(c *fiber.Ctx) error {
	appointments, err := s.appointmentService.ListMine(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(appointments)
}

// GetAllAppointments handles GET /api/appointments/admin/all
// @Summary All appointments
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Appointment
// @Failure 403 {object} models.ErrorResponse
// @Router /appointments/admin/all [get]
func (s *Server) GetAllAppointments(c *fiber.Ctx) error {
	appointments, err := s.appointmentService.ListAll(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(appointments)
}

// UpdateAppointmentStatus handles PATCH /api/appointments/:id/status
// @Summary Move an appointment to a new status
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Appointment ID"
// @Param request body object{status=string} true "New status"
// @Success 200 {object} models.Appointment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /appointments/{id}/status [patch]
func (s *Server) UpdateAppointmentStatus(c *fiber.Ctx) error {
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

	appointment, err := s.appointmentService.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	s.notifyUser(c.UserContext(), appointment.UserID, notifications.Event{
		Type:   notifications.EventAppointmentUpdated,
		ID:     appointment.ID,
		Status: string(appointment.Status),
	})
	return c.JSON(appointment)
}
