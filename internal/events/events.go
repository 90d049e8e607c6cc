// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"buildvive_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Quote Domain Events
// =============================================================================

// QuoteSubmitted is published when a customer submits a quote request.
type QuoteSubmitted struct {
	BaseEvent
	QuoteID     string `json:"quoteId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	ProjectType string `json:"projectType"`
}

func (e QuoteSubmitted) EventName() string { return "quotes.submitted" }

// QuoteApproved is published when an operator approves a quote.
type QuoteApproved struct {
	BaseEvent
	QuoteID           string    `json:"quoteId"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	DocumentURL       string    `json:"documentUrl"`
	ApprovedAt        time.Time `json:"approvedAt"`
	ResponseTimeHours float64   `json:"responseTimeHours"`
}

func (e QuoteApproved) EventName() string { return "quotes.approved" }

// QuoteRejected is published when an operator rejects a quote.
type QuoteRejected struct {
	BaseEvent
	QuoteID string `json:"quoteId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Notes   string `json:"notes,omitempty"`
}

func (e QuoteRejected) EventName() string { return "quotes.rejected" }

// QuoteInfoRequested is published when an operator re-opens a quote for
// more information.
type QuoteInfoRequested struct {
	BaseEvent
	QuoteID string `json:"quoteId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Notes   string `json:"notes"`
}

func (e QuoteInfoRequested) EventName() string { return "quotes.info_requested" }

// =============================================================================
// Session Domain Events
// =============================================================================

// SessionEscalated is published when a support session is handed off to a
// human operator.
type SessionEscalated struct {
	BaseEvent
	SessionID        string `json:"sessionId"`
	Reason           string `json:"reason"`
	TriggeringText   string `json:"triggeringText,omitempty"`
	ParticipantPhone string `json:"participantPhone,omitempty"`
	ParticipantName  string `json:"participantName,omitempty"`
}

func (e SessionEscalated) EventName() string { return "sessions.escalated" }

// SessionCompleted is published when a session reaches the completed state.
type SessionCompleted struct {
	BaseEvent
	SessionID      string `json:"sessionId"`
	ExternalCallID string `json:"externalCallId,omitempty"`
}

func (e SessionCompleted) EventName() string { return "sessions.completed" }

// CallReportReceived is published when an end-of-call report is merged into
// a session, whatever state the session was in at the time.
type CallReportReceived struct {
	BaseEvent
	SessionID      string `json:"sessionId"`
	ExternalCallID string `json:"externalCallId"`
	Summary        string `json:"summary,omitempty"`
}

func (e CallReportReceived) EventName() string { return "sessions.call_report_received" }
