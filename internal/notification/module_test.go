package notification

import (
	"context"
	"testing"

	"buildvive_backend/internal/events"
	"buildvive_backend/platform/logger"
)

type testNotificationConfig struct {
	enabled  bool
	opsEmail string
}

func (c testNotificationConfig) GetEmailEnabled() bool       { return c.enabled }
func (c testNotificationConfig) GetSMTPHost() string         { return "localhost" }
func (c testNotificationConfig) GetSMTPPort() int            { return 1025 }
func (c testNotificationConfig) GetSMTPUsername() string     { return "" }
func (c testNotificationConfig) GetSMTPPassword() string     { return "" }
func (c testNotificationConfig) GetEmailFromName() string    { return "BuildVive Renovations" }
func (c testNotificationConfig) GetEmailFromAddress() string { return "no-reply@example.com" }
func (c testNotificationConfig) GetOpsEmail() string         { return c.opsEmail }

type testSender struct {
	confirmationCalls  int
	approvedCalls      int
	infoRequestedCalls int
	escalationCalls    int
	lastEscalationTo   string
}

func (s *testSender) SendQuoteConfirmation(context.Context, string, string, string) error {
	s.confirmationCalls++
	return nil
}

func (s *testSender) SendQuoteApproved(context.Context, string, string, string) error {
	s.approvedCalls++
	return nil
}

func (s *testSender) SendQuoteInfoRequested(context.Context, string, string, string) error {
	s.infoRequestedCalls++
	return nil
}

func (s *testSender) SendEscalationAlert(_ context.Context, toEmail string, _ string, _ string, _ string, _ string) error {
	s.escalationCalls++
	s.lastEscalationTo = toEmail
	return nil
}

func TestHandleQuoteSubmittedSendsConfirmation(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{enabled: true}, logger.New("development"))

	err := m.Handle(context.Background(), events.QuoteSubmitted{
		BaseEvent:   events.NewBaseEvent(),
		QuoteID:     "q-1",
		Name:        "Ana",
		Email:       "ana@example.com",
		ProjectType: "Kitchen Remodel",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.confirmationCalls != 1 {
		t.Errorf("confirmation calls = %d, want 1", sender.confirmationCalls)
	}
}

func TestHandleSkipsWhenEmailDisabled(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{enabled: false}, logger.New("development"))

	err := m.Handle(context.Background(), events.QuoteApproved{
		BaseEvent: events.NewBaseEvent(),
		QuoteID:   "q-1",
		Email:     "ana@example.com",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.approvedCalls != 0 {
		t.Errorf("approved email sent while disabled: %d calls", sender.approvedCalls)
	}
}

func TestHandleSessionEscalatedAlertsOps(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{enabled: true, opsEmail: "ops@example.com"}, logger.New("development"))

	err := m.Handle(context.Background(), events.SessionEscalated{
		BaseEvent: events.NewBaseEvent(),
		SessionID: "sess-1",
		Reason:    "visitor requested human assistance",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.escalationCalls != 1 || sender.lastEscalationTo != "ops@example.com" {
		t.Errorf("escalation alert: calls=%d to=%q", sender.escalationCalls, sender.lastEscalationTo)
	}
}

func TestHandleSessionEscalatedWithoutOpsEmail(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{enabled: true}, logger.New("development"))

	err := m.Handle(context.Background(), events.SessionEscalated{
		BaseEvent: events.NewBaseEvent(),
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.escalationCalls != 0 {
		t.Errorf("alert sent despite missing ops email")
	}
}

func TestHandleSkipsEmptyRecipient(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{enabled: true}, logger.New("development"))

	err := m.Handle(context.Background(), events.QuoteInfoRequested{
		BaseEvent: events.NewBaseEvent(),
		QuoteID:   "q-2",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.infoRequestedCalls != 0 {
		t.Errorf("info request email sent without a recipient")
	}
}
