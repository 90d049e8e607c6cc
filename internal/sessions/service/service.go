// Package service implements the session lifecycle state machine.
//
// Two request sources drive it: synchronous chat turns and telephony webhook
// events that arrive late, duplicated or out of order. Every operation is
// therefore idempotent, tolerates missing predecessor state, and serializes
// its read-modify-write cycle behind a per-session lock.
package service

import (
	"context"
	"errors"
	"time"

	"buildvive_backend/internal/events"
	"buildvive_backend/internal/sessions/repository"
	"buildvive_backend/internal/store"
	"buildvive_backend/platform/apperr"
	"buildvive_backend/platform/logger"
	"buildvive_backend/platform/phone"

	"github.com/google/uuid"
)

// TagPlaceholder marks sessions materialized for webhook events that arrived
// before the session itself existed.
const TagPlaceholder = "placeholder"

// TagReportReceived marks sessions that received an end-of-call report.
const TagReportReceived = "report-received"

// InitialMeta carries optional participant details for session creation.
type InitialMeta struct {
	Phone string
	Name  string
	Tags  []string
}

// Service owns all transitions on persisted sessions.
type Service struct {
	repo  *repository.Repository
	locks *store.KeyedMutex
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

// New creates the session service. bus may be nil in tests.
func New(repo *repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		locks: store.NewKeyedMutex(),
		bus:   bus,
		log:   log,
		now:   time.Now,
	}
}

// SetClock overrides the time source (tests only).
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Get loads a session by ID.
func (s *Service) Get(ctx context.Context, id string) (*repository.Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load session", err)
	}
	return sess, nil
}

// Create transitions uninitialized → active for the given session ID.
// If the session already exists this is a no-op returning the existing
// record, which makes webhook and client redelivery safe.
func (s *Service) Create(ctx context.Context, id string, meta InitialMeta) (*repository.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	existing, err := s.repo.Get(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindInternal, "load session", err)
	}

	sess := s.newSession(id, "", meta)
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create session", err)
	}
	return sess, nil
}

// CreateForCall transitions uninitialized → active for an external call ID,
// binding the call to a fresh session. Idempotent on redelivery.
func (s *Service) CreateForCall(ctx context.Context, callID string, meta InitialMeta) (*repository.Session, error) {
	if callID == "" {
		return nil, apperr.Validation("missing call id")
	}
	return s.ensureCallSession(ctx, callID, meta, false)
}

// AppendTurn appends one turn to an active session. Terminal sessions
// reject user and assistant turns as a logged no-op; system turns (closing
// messages) are always allowed.
func (s *Service) AppendTurn(ctx context.Context, sessionID string, turn repository.ChatTurn) (*repository.Session, error) {
	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)
	return s.appendTurnLocked(ctx, sessionID, turn)
}

// AppendTurnForCall appends a live transcript turn to the session bound to a
// call, materializing a placeholder session when the transcript beat the
// call-started event.
func (s *Service) AppendTurnForCall(ctx context.Context, callID string, turn repository.ChatTurn) (*repository.Session, error) {
	sess, err := s.ensureCallSession(ctx, callID, InitialMeta{}, true)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(sess.ID)
	defer s.locks.Unlock(sess.ID)
	return s.appendTurnLocked(ctx, sess.ID, turn)
}

// Close transitions active → completed. Re-closing is a no-op, and a close
// carrying an earlier timestamp than the recorded end never rewinds it;
// the telephony provider redelivers end events with no ordering guarantee.
func (s *Service) Close(ctx context.Context, sessionID string, endedAt time.Time, meta *repository.CallMeta) (*repository.Session, error) {
	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)
	return s.closeLocked(ctx, sessionID, endedAt, meta)
}

// CloseForCall closes the session bound to a call, materializing a
// placeholder when the end event arrived for an unknown call.
func (s *Service) CloseForCall(ctx context.Context, callID string, endedAt time.Time, meta *repository.CallMeta) (*repository.Session, error) {
	sess, err := s.ensureCallSession(ctx, callID, InitialMeta{}, true)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(sess.ID)
	defer s.locks.Unlock(sess.ID)
	return s.closeLocked(ctx, sess.ID, endedAt, meta)
}

// Enrich merges end-of-call report metadata into a session without changing
// its status. It works on active and completed sessions alike: the report
// regularly arrives before the end event, and sometimes before the session
// exists at all, in which case a placeholder absorbs it.
func (s *Service) Enrich(ctx context.Context, sessionID string, meta repository.CallMeta) (*repository.Session, error) {
	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)
	return s.enrichLocked(ctx, sessionID, meta)
}

// EnrichForCall merges a report addressed by external call ID.
func (s *Service) EnrichForCall(ctx context.Context, callID string, meta repository.CallMeta) (*repository.Session, error) {
	sess, err := s.ensureCallSession(ctx, callID, InitialMeta{}, true)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(sess.ID)
	defer s.locks.Unlock(sess.ID)
	return s.enrichLocked(ctx, sess.ID, meta)
}

// Escalate transitions active → escalated and records the reason. The
// hand-off side effects (system turn, notification) belong to the
// escalation coordinator; this only moves the state machine.
func (s *Service) Escalate(ctx context.Context, sessionID, reason string) (*repository.Session, error) {
	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load session", err)
	}

	if sess.IsTerminal() {
		s.log.StateConflict("session", sessionID, "escalate", string(sess.Status))
		return sess, nil
	}

	sess.Status = repository.StatusEscalated
	sess.EscalationReason = reason
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "escalate session", err)
	}
	return sess, nil
}

// Tag adds a tag to a session if it is not already present.
func (s *Service) Tag(ctx context.Context, sessionID, tag string) error {
	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("session not found")
		}
		return apperr.Wrap(apperr.KindInternal, "load session", err)
	}
	if sess.HasTag(tag) {
		return nil
	}
	sess.AddTag(tag)
	if err := s.repo.Save(ctx, sess); err != nil {
		return apperr.Wrap(apperr.KindInternal, "tag session", err)
	}
	return nil
}

// ActiveIDs lists IDs of sessions currently in the active index.
func (s *Service) ActiveIDs(ctx context.Context) ([]string, error) {
	ids, err := s.repo.ActiveIDs(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list active sessions", err)
	}
	return ids, nil
}

// CloseIdleChatSessions completes chat sessions with no activity for
// idleFor, appending a system closing turn. Call sessions are excluded;
// their lifecycle belongs to the telephony provider.
func (s *Service) CloseIdleChatSessions(ctx context.Context, idleFor time.Duration) (int, error) {
	ids, err := s.repo.ActiveIDs(ctx)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "list active sessions", err)
	}

	cutoff := s.now().Add(-idleFor)
	closed := 0
	for _, id := range ids {
		n, err := s.closeIfIdle(ctx, id, cutoff)
		if err != nil {
			s.log.StoreError("close idle session "+id, err)
			continue
		}
		closed += n
	}
	return closed, nil
}

func (s *Service) closeIfIdle(ctx context.Context, id string, cutoff time.Time) (int, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if sess.Status != repository.StatusActive || sess.IsCall() || sess.LastActivity().After(cutoff) {
		return 0, nil
	}

	now := s.now()
	sess.Turns = append(sess.Turns, repository.ChatTurn{
		ID:        uuid.NewString(),
		Role:      repository.RoleSystem,
		Text:      "This chat was closed due to inactivity. Message us any time to start a new one.",
		Timestamp: now,
	})
	sess.Status = repository.StatusCompleted
	sess.EndedAt = &now
	if err := s.repo.Save(ctx, sess); err != nil {
		return 0, err
	}
	s.publishCompleted(ctx, sess)
	return 1, nil
}

// ---- internals ----

func (s *Service) newSession(id, callID string, meta InitialMeta) *repository.Session {
	sess := &repository.Session{
		ID:               id,
		ExternalCallID:   callID,
		ParticipantPhone: phone.NormalizeE164(meta.Phone),
		ParticipantName:  meta.Name,
		StartedAt:        s.now(),
		Status:           repository.StatusActive,
	}
	for _, tag := range meta.Tags {
		sess.AddTag(tag)
	}
	return sess
}

// ensureCallSession resolves a call ID to its session, creating one when
// absent. When placeholder is true the creation is logged as a warning: an
// event arrived for a call the state machine has never seen, which the
// provider's unordered delivery makes legal.
func (s *Service) ensureCallSession(ctx context.Context, callID string, meta InitialMeta, placeholder bool) (*repository.Session, error) {
	lockKey := "call:" + callID
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	sessionID, err := s.repo.ResolveCallID(ctx, callID)
	if err == nil {
		sess, err := s.repo.Get(ctx, sessionID)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindInternal, "load session", err)
		}
		// Dangling index entry; fall through and recreate.
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindInternal, "resolve call", err)
	}

	if placeholder {
		s.log.Warn("webhook event for unknown call, creating placeholder session", "call_id", callID)
		meta.Tags = append(meta.Tags, TagPlaceholder)
	}

	sess := s.newSession(uuid.NewString(), callID, meta)
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create call session", err)
	}
	if err := s.repo.BindCallID(ctx, callID, sess.ID); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "bind call session", err)
	}
	return sess, nil
}

func (s *Service) appendTurnLocked(ctx context.Context, sessionID string, turn repository.ChatTurn) (*repository.Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load session", err)
	}

	if sess.IsTerminal() && turn.Role != repository.RoleSystem {
		s.log.StateConflict("session", sessionID, "append_turn", string(sess.Status))
		return sess, nil
	}

	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = s.now()
	}

	sess.Turns = append(sess.Turns, turn)
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "append turn", err)
	}
	return sess, nil
}

func (s *Service) closeLocked(ctx context.Context, sessionID string, endedAt time.Time, meta *repository.CallMeta) (*repository.Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load session", err)
	}

	if endedAt.IsZero() {
		endedAt = s.now()
	}

	switch sess.Status {
	case repository.StatusCompleted:
		// Redelivered end event. Never rewind an already-recorded end.
		s.log.StateConflict("session", sessionID, "close", string(sess.Status))
		return sess, nil
	case repository.StatusEscalated:
		// Terminal status is preserved; the end timestamp and call
		// metadata still attach as enrichment.
		if sess.EndedAt == nil {
			sess.EndedAt = &endedAt
		}
		mergeCallMeta(sess, meta)
		if err := s.repo.Save(ctx, sess); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "close session", err)
		}
		return sess, nil
	}

	sess.Status = repository.StatusCompleted
	sess.EndedAt = &endedAt
	mergeCallMeta(sess, meta)
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "close session", err)
	}
	s.publishCompleted(ctx, sess)
	return sess, nil
}

func (s *Service) enrichLocked(ctx context.Context, sessionID string, meta repository.CallMeta) (*repository.Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load session", err)
	}

	mergeCallMeta(sess, &meta)
	sess.AddTag(TagReportReceived)
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "enrich session", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.CallReportReceived{
			BaseEvent:      events.NewBaseEvent(),
			SessionID:      sess.ID,
			ExternalCallID: sess.ExternalCallID,
			Summary:        meta.Summary,
		})
	}
	return sess, nil
}

// mergeCallMeta merges non-zero fields of incoming metadata; it never blanks
// a field a previous event already filled.
func mergeCallMeta(sess *repository.Session, meta *repository.CallMeta) {
	if meta == nil {
		return
	}
	if sess.CallMeta == nil {
		sess.CallMeta = &repository.CallMeta{}
	}
	dst := sess.CallMeta
	if meta.DurationSeconds > 0 {
		dst.DurationSeconds = meta.DurationSeconds
	}
	if meta.Cost > 0 {
		dst.Cost = meta.Cost
	}
	if meta.RecordingURL != "" {
		dst.RecordingURL = meta.RecordingURL
	}
	if meta.TranscriptText != "" {
		dst.TranscriptText = meta.TranscriptText
	}
	if meta.Summary != "" {
		dst.Summary = meta.Summary
	}
	if len(meta.Analysis) > 0 {
		if dst.Analysis == nil {
			dst.Analysis = make(map[string]any, len(meta.Analysis))
		}
		for k, v := range meta.Analysis {
			dst.Analysis[k] = v
		}
	}
}

func (s *Service) publishCompleted(ctx context.Context, sess *repository.Session) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.SessionCompleted{
		BaseEvent:      events.NewBaseEvent(),
		SessionID:      sess.ID,
		ExternalCallID: sess.ExternalCallID,
	})
}
