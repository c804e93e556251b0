// Package assistant builds the PCOS Care chat transcript and sends it to a
// generative language model.
package assistant

import (
	_ "embed"
	"fmt"
	"strings"

	"pcoscare/internal/models"
)

//go:embed system_prompt.md
var systemPrompt string

const (
	systemAck  = "Understood. I am the PCOS Care Assistant. I will follow all rules, including the absolute ban on mentioning SHAP. I will analyze user data based on the drivers provided. How can I help you today?"
	contextAck = "Context received. I am ready to analyze the user's specific data if they ask."

	noContext = "No specific user prediction data available. Guide the user based on general knowledge."
)

// Role is the speaker of a transcript turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of the transcript sent to the model.
type Turn struct {
	Role Role
	Text string
}

// HistoryMessage is a prior chat bubble as the web client stores it.
// Type "user" marks the user's own messages; anything else is the assistant.
type HistoryMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// UserContext is the caller's latest screening result, if they have one.
type UserContext struct {
	Prediction    *int                   `json:"prediction"`
	Probabilities models.Probabilities   `json:"probabilities"`
	TopFeatures   []models.FeatureImpact `json:"topFeatures"`
}

// SystemPrompt returns the fixed instruction preamble.
func SystemPrompt() string {
	return systemPrompt
}

// FormatContext renders uc as the context turn. A nil context, or one
// without a prediction, yields the general-knowledge fallback.
func FormatContext(uc *UserContext) string {
	if uc == nil || uc.Prediction == nil {
		return noContext
	}

	result := "No PCOS Detected"
	if *uc.Prediction == 1 {
		result = "PCOS Potential Detected"
	}

	drivers := "N/A"
	if len(uc.TopFeatures) > 0 {
		parts := make([]string, len(uc.TopFeatures))
		for i, f := range uc.TopFeatures {
			parts[i] = fmt.Sprintf("%s (impact: %.4f)", f.Feature, f.Impact)
		}
		drivers = strings.Join(parts, ", ")
	}

	var b strings.Builder
	b.WriteString("USER_CONTEXT (Current Prediction Result):\n")
	fmt.Fprintf(&b, "- Result: %s\n", result)
	fmt.Fprintf(&b, "- Probability of PCOS: %.1f%%\n", uc.Probabilities.PCOS*100)
	fmt.Fprintf(&b, "- Top Driving Features: %s\n\n", drivers)
	b.WriteString("Analyze this data for the user if they ask about their results.")
	return b.String()
}

// BuildTranscript assembles preamble, context, history and the new message
// in the order the model sees them.
func BuildTranscript(history []HistoryMessage, uc *UserContext, message string) []Turn {
	turns := make([]Turn, 0, len(history)+5)
	turns = append(turns,
		Turn{Role: RoleUser, Text: systemPrompt},
		Turn{Role: RoleModel, Text: systemAck},
		Turn{Role: RoleUser, Text: FormatContext(uc)},
		Turn{Role: RoleModel, Text: contextAck},
	)
	for _, h := range history {
		if strings.TrimSpace(h.Text) == "" {
			continue
		}
		role := RoleModel
		if h.Type == "user" {
			role = RoleUser
		}
		turns = append(turns, Turn{Role: role, Text: h.Text})
	}
	return append(turns, Turn{Role: RoleUser, Text: message})
}
