// Package dialog provides the dialog-agent gateway implementation.
package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/dentalline/voicecore/pkg/speech"
)

// DefaultSystemPrompt frames the receptionist persona for free-form turns.
// Deterministic intents (emergency, booking prompts, handoff) never reach
// the model.
const DefaultSystemPrompt = "You are the phone receptionist for Dentalline, a dental clinic. " +
	"Keep replies short and spoken-friendly: one or two sentences, no lists, no markdown. " +
	"If the caller wants an appointment, ask for their name, phone number, and reason for the visit. " +
	"Never give medical advice beyond recommending a visit."

// Gemini answers free-form conversation turns through the genai SDK.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini wraps an initialized genai client.
func NewGemini(client *genai.Client, model string) *Gemini {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{
		client:  client,
		model:   model,
		timeout: 8 * time.Second,
	}
}

// WithTimeout bounds each reply call.
func (g *Gemini) WithTimeout(timeout time.Duration) *Gemini {
	if timeout > 0 {
		g.timeout = timeout
	}
	return g
}

// Reply produces the assistant's next utterance from the conversation so far.
func (g *Gemini) Reply(ctx context.Context, system string, history []speech.DialogTurn) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("gemini client is not initialized")
	}
	if system == "" {
		system = DefaultSystemPrompt
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		var role genai.Role = genai.RoleUser
		if turn.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", speech.ErrNoResponse
	}
	return text, nil
}

var _ speech.DialogAgent = (*Gemini)(nil)
