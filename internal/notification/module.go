// Package notification provides event handlers for sending notifications
// (email, SMS dispatch) in response to domain events.
// This module subscribes to events and inverts the dependency: domain modules
// never need to know about mail providers or templates.
package notification

import (
	"context"
	"fmt"

	"buildvive_backend/internal/email"
	"buildvive_backend/internal/events"
	"buildvive_backend/platform/config"
	"buildvive_backend/platform/logger"
)

// Module handles all notification-related event subscriptions.
type Module struct {
	sender email.Sender
	cfg    config.EmailConfig
	log    *logger.Logger
}

// New creates the notification module.
func New(sender email.Sender, cfg config.EmailConfig, log *logger.Logger) *Module {
	return &Module{sender: sender, cfg: cfg, log: log}
}

// RegisterHandlers subscribes the module to the domain events it reacts to.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.QuoteSubmitted{}.EventName(), m)
	bus.Subscribe(events.QuoteApproved{}.EventName(), m)
	bus.Subscribe(events.QuoteInfoRequested{}.EventName(), m)
	bus.Subscribe(events.SessionEscalated{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	if !m.cfg.GetEmailEnabled() || m.sender == nil {
		return nil
	}

	switch e := event.(type) {
	case events.QuoteSubmitted:
		return m.handleQuoteSubmitted(ctx, e)
	case events.QuoteApproved:
		return m.handleQuoteApproved(ctx, e)
	case events.QuoteInfoRequested:
		return m.handleQuoteInfoRequested(ctx, e)
	case events.SessionEscalated:
		return m.handleSessionEscalated(ctx, e)
	default:
		return fmt.Errorf("notification: unhandled event %s", event.EventName())
	}
}

func (m *Module) handleQuoteSubmitted(ctx context.Context, e events.QuoteSubmitted) error {
	if e.Email == "" {
		return nil
	}
	if err := m.sender.SendQuoteConfirmation(ctx, e.Email, e.Name, e.ProjectType); err != nil {
		m.log.ExternalServiceError("quote confirmation email", err)
		return err
	}
	m.log.Info("quote confirmation email sent", "quote_id", e.QuoteID)
	return nil
}

func (m *Module) handleQuoteApproved(ctx context.Context, e events.QuoteApproved) error {
	if e.Email == "" {
		return nil
	}
	if err := m.sender.SendQuoteApproved(ctx, e.Email, e.Name, e.DocumentURL); err != nil {
		m.log.ExternalServiceError("quote approved email", err)
		return err
	}
	m.log.Info("quote approved email sent", "quote_id", e.QuoteID, "response_time_hours", e.ResponseTimeHours)
	return nil
}

func (m *Module) handleQuoteInfoRequested(ctx context.Context, e events.QuoteInfoRequested) error {
	if e.Email == "" {
		return nil
	}
	if err := m.sender.SendQuoteInfoRequested(ctx, e.Email, e.Name, e.Notes); err != nil {
		m.log.ExternalServiceError("quote info request email", err)
		return err
	}
	m.log.Info("quote info request email sent", "quote_id", e.QuoteID)
	return nil
}

func (m *Module) handleSessionEscalated(ctx context.Context, e events.SessionEscalated) error {
	opsEmail := m.cfg.GetOpsEmail()
	if opsEmail == "" {
		m.log.Warn("escalation alert dropped, OPS_EMAIL not configured", "session_id", e.SessionID)
		return nil
	}
	if err := m.sender.SendEscalationAlert(ctx, opsEmail, e.SessionID, e.Reason, e.ParticipantName, e.ParticipantPhone); err != nil {
		m.log.ExternalServiceError("escalation alert email", err)
		return err
	}
	m.log.Info("escalation alert email sent", "session_id", e.SessionID)
	return nil
}
