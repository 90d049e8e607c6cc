package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"buildvive_backend/internal/escalation"
	"buildvive_backend/internal/sessions/repository"
	sessionsvc "buildvive_backend/internal/sessions/service"
	"buildvive_backend/internal/store"
	"buildvive_backend/internal/triage"
	"buildvive_backend/platform/logger"
)

type fakeQuotes struct {
	quote *triage.QuoteContext
}

func (f *fakeQuotes) Context(_ context.Context, id string) (*triage.QuoteContext, error) {
	if f.quote != nil && f.quote.ID == id {
		return f.quote, nil
	}
	return nil, nil
}

type fakeNotifier struct {
	called bool
	err    error
}

func (f *fakeNotifier) Notify(context.Context, escalation.Alert) error {
	f.called = true
	return f.err
}

type fakeAI struct {
	reply string
	err   error
	calls int
}

func (f *fakeAI) Respond(context.Context, string, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func newTestChat(t *testing.T, quotes *fakeQuotes, notifier *fakeNotifier, ai triage.AIResponder) (*Service, *sessionsvc.Service) {
	t.Helper()
	log := logger.New("development")
	sessions := sessionsvc.New(repository.New(store.NewMemoryStore()), nil, log)
	coord := escalation.New(sessions, notifier, nil, nil, log)

	lex := triage.NewLexicon()
	svc := New(triage.NewClassifier(lex), triage.NewResponder(lex, ai, log), sessions, quotes, coord, log)
	return svc, sessions
}

func TestHandleRecordsBothTurns(t *testing.T) {
	svc, sessions := newTestChat(t, &fakeQuotes{}, &fakeNotifier{}, nil)
	ctx := context.Background()

	resp, err := svc.Handle(ctx, Request{Message: "hello"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatal("no session id returned")
	}
	if resp.Escalated {
		t.Error("greeting escalated")
	}

	sess, err := sessions.Get(ctx, resp.SessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if len(sess.Turns) != 2 {
		t.Fatalf("turns = %d, want 2", len(sess.Turns))
	}
	if sess.Turns[0].Role != repository.RoleUser || sess.Turns[1].Role != repository.RoleAssistant {
		t.Errorf("turn roles = %s, %s", sess.Turns[0].Role, sess.Turns[1].Role)
	}
}

func TestHandleReusesSession(t *testing.T) {
	svc, sessions := newTestChat(t, &fakeQuotes{}, &fakeNotifier{}, nil)
	ctx := context.Background()

	first, err := svc.Handle(ctx, Request{Message: "hi there"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.Handle(ctx, Request{Message: "thanks", SessionID: first.SessionID})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("session changed: %s vs %s", second.SessionID, first.SessionID)
	}

	sess, _ := sessions.Get(ctx, first.SessionID)
	if len(sess.Turns) != 4 {
		t.Errorf("turns = %d, want 4", len(sess.Turns))
	}
}

func TestQuoteSubmittedSentinel(t *testing.T) {
	quote := &triage.QuoteContext{
		ID:          "q-1",
		Name:        "Maya Chen",
		ProjectType: "Bathroom Remodel",
		Location:    "Portland",
		SubmittedAt: time.Now(),
	}
	svc, sessions := newTestChat(t, &fakeQuotes{quote: quote}, &fakeNotifier{}, nil)
	ctx := context.Background()

	resp, err := svc.Handle(ctx, Request{Message: SentinelQuoteSubmitted, QuoteID: "q-1"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(resp.Text, "Maya") {
		t.Errorf("greeting not personalized: %q", resp.Text)
	}

	sess, _ := sessions.Get(ctx, resp.SessionID)
	if len(sess.Turns) != 1 || sess.Turns[0].Role != repository.RoleAssistant {
		t.Errorf("sentinel recorded wrong turns: %+v", sess.Turns)
	}
	if !sess.HasTag("quote:q-1") {
		t.Errorf("session not tagged with quote, tags = %v", sess.Tags)
	}
}

func TestEscalationIntentTransitionsSession(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, sessions := newTestChat(t, &fakeQuotes{}, notifier, nil)
	ctx := context.Background()

	resp, err := svc.Handle(ctx, Request{Message: "call me now"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !resp.Escalated {
		t.Fatal("expected escalate flag")
	}
	if !notifier.called {
		t.Error("notifier not called")
	}

	sess, _ := sessions.Get(ctx, resp.SessionID)
	if sess.Status != repository.StatusEscalated {
		t.Errorf("status = %s, want escalated", sess.Status)
	}
	last := sess.Turns[len(sess.Turns)-1]
	if last.Text != resp.Text {
		t.Errorf("acknowledgment missing from history, last turn = %q", last.Text)
	}
	if last.Role != repository.RoleSystem {
		t.Errorf("acknowledgment role = %s, want system", last.Role)
	}
}

func TestEscalationDegradesOnNotifierFailure(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("sms gateway down")}
	svc, sessions := newTestChat(t, &fakeQuotes{}, notifier, nil)
	ctx := context.Background()

	resp, err := svc.Handle(ctx, Request{Message: "urgent help"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !resp.Escalated {
		t.Fatal("expected escalate flag")
	}
	if !strings.Contains(resp.Text, "(555) 014-7300") {
		t.Errorf("expected degraded acknowledgment, got %q", resp.Text)
	}

	sess, _ := sessions.Get(ctx, resp.SessionID)
	last := sess.Turns[len(sess.Turns)-1]
	if last.Text != resp.Text {
		t.Errorf("degraded acknowledgment missing from history, last turn = %q", last.Text)
	}
}

func TestEmergencyBypassesAI(t *testing.T) {
	ai := &fakeAI{reply: "AI should not answer this"}
	svc, _ := newTestChat(t, &fakeQuotes{}, &fakeNotifier{}, ai)

	resp, err := svc.Handle(context.Background(), Request{Message: "water is flooding the basement"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if ai.calls != 0 {
		t.Errorf("AI called %d times for an emergency", ai.calls)
	}
	if !strings.Contains(resp.Text, "main water valve") {
		t.Errorf("expected scripted emergency steps, got %q", resp.Text)
	}
}
