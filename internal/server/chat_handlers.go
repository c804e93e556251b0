package server

import (
	"pcoscare/internal/assistant"
	"pcoscare/internal/models"
	"pcoscare/internal/service"

	"github.com/gofiber/fiber/v2"
)

type chatRequest struct {
	Message     string                     `json:"message"`
	History     []assistant.HistoryMessage `json:"history"`
	UserContext *assistant.UserContext     `json:"userContext"`
}

// Chat handles POST /api/chat
// @Summary Ask the PCOS assistant
// @Description Forwards the conversation to the generative-language assistant
// @Tags chat
// @Accept json
// @Produce json
// @Param request body chatRequest true "Chat turn"
// @Success 200 {object} object{text=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /chat [post]
func (s *Server) Chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	userID, _ := s.optionalUserID(c)

	text, err := s.chatService.Reply(c.UserContext(), service.ChatInput{
		UserID:      userID,
		Message:     req.Message,
		History:     req.History,
		UserContext: req.UserContext,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"text": text})
}
