// Package transport defines the chat endpoint wire contract.
package transport

// ChatRequest is the body for POST /chat. Message may be empty; the triage
// engine answers empty input with a clarification prompt instead of an error.
type ChatRequest struct {
	Message   string `json:"message" validate:"max=4000"`
	QuoteID   string `json:"quoteId" validate:"max=100"`
	SessionID string `json:"sessionId" validate:"max=100"`
}

// ChatResponse is the generated reply.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
	Escalate  bool   `json:"escalate,omitempty"`
}
