package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pcoscare/internal/assistant"
	"pcoscare/internal/featureflags"
	"pcoscare/internal/middleware"
	"pcoscare/internal/models"
	"pcoscare/internal/observability"
)

// ChatService proxies questions to the generative-language assistant.
type ChatService struct {
	generator assistant.Generator
	flags     *featureflags.Manager
	timeout   time.Duration
}

type ChatInput struct {
	UserID      uint
	Message     string
	History     []assistant.HistoryMessage
	UserContext *assistant.UserContext
}

// NewChatService returns a ChatService. A nil generator means the assistant
// is not configured and every request fails with 503.
func NewChatService(generator assistant.Generator, flags *featureflags.Manager, timeout time.Duration) *ChatService {
	return &ChatService{
		generator: generator,
		flags:     flags,
		timeout:   timeout,
	}
}

// Reply builds the transcript for in and returns the assistant's text.
func (s *ChatService) Reply(ctx context.Context, in ChatInput) (string, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		observability.ChatRequests.WithLabelValues(observability.OutcomeInvalid).Inc()
		return "", models.NewValidationError("Message is required")
	}
	if s.generator == nil {
		observability.ChatRequests.WithLabelValues("unavailable").Inc()
		return "", models.NewUnavailableError("AI assistant is not configured")
	}
	if !s.flags.Enabled(featureflags.ChatAssistant, in.UserID) {
		observability.ChatRequests.WithLabelValues("unavailable").Inc()
		return "", models.NewUnavailableError("AI assistant is currently disabled")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	turns := assistant.BuildTranscript(in.History, in.UserContext, message)
	text, err := s.generator.Generate(ctx, turns)
	if err != nil {
		observability.ChatRequests.WithLabelValues(observability.OutcomeError).Inc()
		middleware.Logger.ErrorContext(ctx, "assistant request failed",
			slog.Int("turns", len(turns)),
			slog.String("error", err.Error()))
		return "", models.NewUpstreamError("Failed to get a response from AI Assistant", err, err.Error())
	}

	observability.ChatRequests.WithLabelValues(observability.OutcomeSuccess).Inc()
	return text, nil
}
