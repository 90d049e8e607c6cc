// Package service orchestrates one chat turn: triage, session bookkeeping,
// response generation and escalation hand-off.
package service

import (
	"context"

	"buildvive_backend/internal/escalation"
	"buildvive_backend/internal/sessions/repository"
	sessionsvc "buildvive_backend/internal/sessions/service"
	"buildvive_backend/internal/triage"
	"buildvive_backend/platform/logger"
)

// SentinelQuoteSubmitted is the magic message the quote form sends right
// after submission; it yields a personalized greeting instead of triage.
const SentinelQuoteSubmitted = "QUOTE_SUBMITTED"

const degradedHandoff = "I've flagged your conversation for our team, but our notification " +
	"system is having trouble right now. If this is urgent, please call us directly " +
	"at (555) 014-7300 so we can help you straight away."

const escalationReason = "visitor requested human assistance"

// QuoteReader loads the read-only quote snapshot used for personalization.
type QuoteReader interface {
	Context(ctx context.Context, id string) (*triage.QuoteContext, error)
}

// Request is one inbound chat message.
type Request struct {
	Message   string
	QuoteID   string
	SessionID string
}

// Response is the generated reply.
type Response struct {
	SessionID string
	Text      string
	Escalated bool
}

// Service glues the triage engine to sessions, quotes and escalation.
type Service struct {
	classifier *triage.Classifier
	responder  *triage.Responder
	sessions   *sessionsvc.Service
	quotes     QuoteReader
	escalation *escalation.Coordinator
	log        *logger.Logger
}

// New creates the chat service.
func New(classifier *triage.Classifier, responder *triage.Responder, sessions *sessionsvc.Service, quotes QuoteReader, esc *escalation.Coordinator, log *logger.Logger) *Service {
	return &Service{
		classifier: classifier,
		responder:  responder,
		sessions:   sessions,
		quotes:     quotes,
		escalation: esc,
		log:        log,
	}
}

// Handle processes one chat message and returns the reply. Persistence
// failures on the session path are hard errors; everything downstream of a
// recorded user turn degrades to a softer answer instead of failing.
func (s *Service) Handle(ctx context.Context, req Request) (Response, error) {
	sess, err := s.sessions.Create(ctx, req.SessionID, sessionsvc.InitialMeta{})
	if err != nil {
		return Response{}, err
	}

	quote := s.quoteContext(ctx, req.QuoteID)
	if req.QuoteID != "" && !sess.HasTag("quote:"+req.QuoteID) {
		if err := s.sessions.Tag(ctx, sess.ID, "quote:"+req.QuoteID); err != nil {
			s.log.StoreError("tag session with quote", err)
		}
	}

	if req.Message == SentinelQuoteSubmitted {
		return s.greet(ctx, sess, quote)
	}

	if _, err := s.sessions.AppendTurn(ctx, sess.ID, repository.ChatTurn{
		Role: repository.RoleUser,
		Text: req.Message,
	}); err != nil {
		return Response{}, err
	}

	cls := s.classifier.Classify(req.Message)

	// The responder may call the AI backend; the session service holds no
	// lock here, so a slow completion never blocks webhook writes.
	reply := s.responder.Respond(ctx, req.Message, cls, quote)

	escalated := false
	replyRole := repository.RoleAssistant
	if reply.Escalate {
		escalated = true
		res, err := s.escalation.Escalate(ctx, sess.ID, escalationReason, req.Message)
		if err != nil {
			s.log.StoreError("escalate session "+sess.ID, err)
			res.Degraded = true
		}
		if res.Degraded {
			reply.Text = degradedHandoff
		}
		// The session is escalated now and only accepts system turns; the
		// hand-off acknowledgment is recorded as one so it stays in history.
		replyRole = repository.RoleSystem
	}

	if _, err := s.sessions.AppendTurn(ctx, sess.ID, repository.ChatTurn{
		Role: replyRole,
		Text: reply.Text,
	}); err != nil {
		s.log.StoreError("record reply turn", err)
	}

	return Response{SessionID: sess.ID, Text: reply.Text, Escalated: escalated}, nil
}

func (s *Service) greet(ctx context.Context, sess *repository.Session, quote *triage.QuoteContext) (Response, error) {
	text := triage.PersonalizedGreeting(quote)
	if _, err := s.sessions.AppendTurn(ctx, sess.ID, repository.ChatTurn{
		Role: repository.RoleAssistant,
		Text: text,
	}); err != nil {
		s.log.StoreError("record greeting turn", err)
	}
	return Response{SessionID: sess.ID, Text: text}, nil
}

func (s *Service) quoteContext(ctx context.Context, quoteID string) *triage.QuoteContext {
	if quoteID == "" || s.quotes == nil {
		return nil
	}
	quote, err := s.quotes.Context(ctx, quoteID)
	if err != nil {
		s.log.StoreError("load quote context "+quoteID, err)
		return nil
	}
	return quote
}
