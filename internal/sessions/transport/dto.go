// Package transport defines the wire contracts for telephony webhook events
// and session read endpoints.
package transport

import (
	"encoding/json"
	"time"

	"buildvive_backend/internal/sessions/repository"
)

// Webhook event types delivered by the telephony provider.
const (
	EventStatusUpdate    = "status-update"
	EventTranscript      = "transcript"
	EventEndOfCallReport = "end-of-call-report"
)

// Call statuses carried by status-update events.
const (
	CallStatusStarted = "started"
	CallStatusEnded   = "ended"
)

// Metadata tolerates both an embedded JSON object and a JSON-encoded string
// containing an object. The provider forwards whatever the call originator
// attached, and different originators serialize it differently.
type Metadata map[string]any

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err == nil {
		*m = obj
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// Unusable shape; drop it rather than fail the whole webhook.
		*m = nil
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		*m = nil
		return nil
	}
	*m = obj
	return nil
}

// String returns the metadata value for key if it is a string.
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// CustomerPayload identifies the remote party on a call.
type CustomerPayload struct {
	Number string `json:"number"`
	Name   string `json:"name"`
}

// CallPayload is the provider's call object, partially populated depending
// on the event type.
type CallPayload struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Customer     CustomerPayload `json:"customer"`
	Metadata     Metadata        `json:"metadata"`
	Duration     float64         `json:"duration"`
	Cost         float64         `json:"cost"`
	RecordingURL string          `json:"recordingUrl"`
	Transcript   string          `json:"transcript"`
	Summary      string          `json:"summary"`
	Analysis     map[string]any  `json:"analysis"`
	EndedAt      *time.Time      `json:"endedAt"`
}

// CallWebhookRequest is the envelope posted to the call webhook. Providers
// nest everything under "message".
type CallWebhookRequest struct {
	Message WebhookMessage `json:"message"`
}

// WebhookMessage is the event payload.
type WebhookMessage struct {
	Type   string      `json:"type"`
	Call   CallPayload `json:"call"`
	Status string      `json:"status"`

	// Live transcript fields arrive flattened next to the call object.
	Role           string     `json:"role"`
	TranscriptText string     `json:"transcript"`
	Timestamp      *time.Time `json:"timestamp"`

	// End-of-call report fields, also flattened.
	Summary      string         `json:"summary"`
	Analysis     map[string]any `json:"analysis"`
	RecordingURL string         `json:"recordingUrl"`
	DurationSec  float64        `json:"durationSeconds"`
	Cost         float64        `json:"cost"`
	EndedAt      *time.Time     `json:"endedAt"`
}

// CallStatus returns the effective call status, preferring the message-level
// field over the nested call object.
func (m WebhookMessage) CallStatus() string {
	if m.Status != "" {
		return m.Status
	}
	return m.Call.Status
}

// TurnResponse is one conversation turn in session reads.
type TurnResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionResponse is the admin read model for a session.
type SessionResponse struct {
	ID               string               `json:"id"`
	ExternalCallID   string               `json:"externalCallId,omitempty"`
	ParticipantPhone string               `json:"participantPhone,omitempty"`
	ParticipantName  string               `json:"participantName,omitempty"`
	Status           string               `json:"status"`
	StartedAt        time.Time            `json:"startedAt"`
	EndedAt          *time.Time           `json:"endedAt,omitempty"`
	EscalationReason string               `json:"escalationReason,omitempty"`
	Tags             []string             `json:"tags,omitempty"`
	Turns            []TurnResponse       `json:"turns"`
	CallMeta         *repository.CallMeta `json:"callMeta,omitempty"`
}

// ToSessionResponse maps a stored session to its read model.
func ToSessionResponse(sess *repository.Session) SessionResponse {
	turns := make([]TurnResponse, 0, len(sess.Turns))
	for _, t := range sess.Turns {
		turns = append(turns, TurnResponse{
			ID:        t.ID,
			Role:      string(t.Role),
			Text:      t.Text,
			Timestamp: t.Timestamp,
		})
	}
	return SessionResponse{
		ID:               sess.ID,
		ExternalCallID:   sess.ExternalCallID,
		ParticipantPhone: sess.ParticipantPhone,
		ParticipantName:  sess.ParticipantName,
		Status:           string(sess.Status),
		StartedAt:        sess.StartedAt,
		EndedAt:          sess.EndedAt,
		EscalationReason: sess.EscalationReason,
		Tags:             sess.Tags,
		Turns:            turns,
		CallMeta:         sess.CallMeta,
	}
}
