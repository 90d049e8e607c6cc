// Package repository provides persistence for support sessions on top of the
// key-value document store.
package repository

import (
	"context"
	"errors"
	"time"

	"buildvive_backend/internal/store"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusEscalated Status = "escalated"
)

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatTurn is one immutable message within a session.
type ChatTurn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// CallMeta carries telephony metadata merged in from webhook events.
type CallMeta struct {
	DurationSeconds float64        `json:"durationSeconds,omitempty"`
	Cost            float64        `json:"cost,omitempty"`
	RecordingURL    string         `json:"recordingUrl,omitempty"`
	TranscriptText  string         `json:"transcriptText,omitempty"`
	Summary         string         `json:"summary,omitempty"`
	Analysis        map[string]any `json:"analysis,omitempty"`
}

// Session is the persisted record of one support interaction, chat or phone
// call. The turns sequence is append-only and status only moves forward.
type Session struct {
	ID               string     `json:"id"`
	ExternalCallID   string     `json:"externalCallId,omitempty"`
	ParticipantPhone string     `json:"participantPhone,omitempty"`
	ParticipantName  string     `json:"participantName,omitempty"`
	Turns            []ChatTurn `json:"turns"`
	StartedAt        time.Time  `json:"startedAt"`
	EndedAt          *time.Time `json:"endedAt,omitempty"`
	Status           Status     `json:"status"`
	EscalationReason string     `json:"escalationReason,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	CallMeta         *CallMeta  `json:"callMeta,omitempty"`
}

// IsTerminal reports whether the session reached a terminal status.
func (s *Session) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusEscalated
}

// IsCall reports whether the session originates from the telephony provider.
func (s *Session) IsCall() bool {
	return s.ExternalCallID != ""
}

// HasTag reports whether the tag is present.
func (s *Session) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag adds a tag if absent.
func (s *Session) AddTag(tag string) {
	if !s.HasTag(tag) {
		s.Tags = append(s.Tags, tag)
	}
}

// LastActivity returns the timestamp of the newest turn, falling back to the
// session start.
func (s *Session) LastActivity() time.Time {
	if len(s.Turns) == 0 {
		return s.StartedAt
	}
	return s.Turns[len(s.Turns)-1].Timestamp
}

// ErrNotFound is returned when no session exists for the key.
var ErrNotFound = errors.New("sessions: not found")

const (
	sessionKeyPrefix = "session:"
	callIndexPrefix  = "callsession:"
	activeIndexKey   = "sessions:active"
)

// Repository stores sessions as JSON documents. It also maintains two
// indexes the plain get/set contract cannot express: external call ID →
// session ID, and the set of active session IDs (consumed by the idle
// reaper). The active index is serialized with its own key lock; per-session
// serialization is the service's responsibility.
type Repository struct {
	store store.Store
	locks *store.KeyedMutex
}

// New creates a session repository.
func New(s store.Store) *Repository {
	return &Repository{store: s, locks: store.NewKeyedMutex()}
}

// Get loads a session by ID.
func (r *Repository) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := r.store.Get(ctx, sessionKeyPrefix+id, &s); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Save persists the session and keeps the active index in sync.
func (r *Repository) Save(ctx context.Context, s *Session) error {
	if err := r.store.Set(ctx, sessionKeyPrefix+s.ID, s); err != nil {
		return err
	}
	return r.updateActiveIndex(ctx, s.ID, s.Status == StatusActive)
}

// ResolveCallID returns the session ID bound to an external call ID.
func (r *Repository) ResolveCallID(ctx context.Context, callID string) (string, error) {
	var sessionID string
	if err := r.store.Get(ctx, callIndexPrefix+callID, &sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return sessionID, nil
}

// BindCallID records the call ID → session ID mapping.
func (r *Repository) BindCallID(ctx context.Context, callID, sessionID string) error {
	return r.store.Set(ctx, callIndexPrefix+callID, sessionID)
}

// ActiveIDs returns the IDs of sessions currently in the active status.
func (r *Repository) ActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.store.Get(ctx, activeIndexKey, &ids); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ids, nil
}

// Delete removes a session document and its call binding.
func (r *Repository) Delete(ctx context.Context, s *Session) error {
	if err := r.store.Delete(ctx, sessionKeyPrefix+s.ID); err != nil {
		return err
	}
	if s.ExternalCallID != "" {
		if err := r.store.Delete(ctx, callIndexPrefix+s.ExternalCallID); err != nil {
			return err
		}
	}
	return r.updateActiveIndex(ctx, s.ID, false)
}

func (r *Repository) updateActiveIndex(ctx context.Context, id string, active bool) error {
	r.locks.Lock(activeIndexKey)
	defer r.locks.Unlock(activeIndexKey)

	ids, err := r.ActiveIDs(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i, existing := range ids {
		if existing == id {
			idx = i
			break
		}
	}

	switch {
	case active && idx == -1:
		ids = append(ids, id)
	case !active && idx >= 0:
		ids = append(ids[:idx], ids[idx+1:]...)
	default:
		return nil
	}

	return r.store.Set(ctx, activeIndexKey, ids)
}
