package triage

import (
	"context"
	"time"

	"buildvive_backend/platform/ai/moonshot"
)

const systemPrompt = "You are the customer assistant for BuildVive Renovations, a residential " +
	"renovation and repair contractor. Answer questions about renovations, repairs, scheduling, " +
	"budgeting and materials in a friendly, concise tone (at most four short paragraphs). " +
	"Never give safety instructions for emergencies; never quote firm prices; when the customer " +
	"wants to talk to a person, tell them to say \"call me\"."

// MoonshotResponder adapts the Moonshot chat client to the AIResponder
// interface. Every call is bounded by the configured timeout so a slow LLM
// round trip degrades into the scripted fallback instead of a hung request.
type MoonshotResponder struct {
	client  *moonshot.Client
	timeout time.Duration
}

// NewMoonshotResponder wraps a moonshot client with a per-call timeout.
func NewMoonshotResponder(client *moonshot.Client, timeout time.Duration) *MoonshotResponder {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &MoonshotResponder{client: client, timeout: timeout}
}

// Respond sends the message (with the quote context block, when present) to
// the model and returns its text.
func (m *MoonshotResponder) Respond(ctx context.Context, message, contextBlock string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	messages := []moonshot.Message{{Role: "system", Content: systemPrompt}}
	if contextBlock != "" {
		messages = append(messages, moonshot.Message{Role: "system", Content: contextBlock})
	}
	messages = append(messages, moonshot.Message{Role: "user", Content: message})

	return m.client.Complete(ctx, messages)
}

var _ AIResponder = (*MoonshotResponder)(nil)
