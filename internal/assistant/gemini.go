package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pcoscare/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// Generator produces the model's reply to a transcript.
type Generator interface {
	Generate(ctx context.Context, turns []Turn) (string, error)
}

// ErrEmptyReply is returned when the model answers without text.
var ErrEmptyReply = errors.New("assistant returned an empty reply")

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini generator for model using apiKey.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Generate sends the transcript as a single multi-turn request.
func (g *Gemini) Generate(ctx context.Context, turns []Turn) (string, error) {
	span, ctx := observability.StartClientSpan(ctx, "gemini", "generate_content")
	defer span.End()
	span.AddAttributes(
		attribute.String("llm.model", g.model),
		attribute.Int("llm.turns", len(turns)),
	)

	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.RoleUser
		if t.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, genai.Role(role)))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		span.SetError(err)
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		span.SetError(ErrEmptyReply)
		return "", ErrEmptyReply
	}
	return text, nil
}
