// Package service implements the quote status state machine.
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"buildvive_backend/internal/events"
	"buildvive_backend/internal/quotes/repository"
	"buildvive_backend/internal/store"
	"buildvive_backend/internal/triage"
	"buildvive_backend/platform/apperr"
	"buildvive_backend/platform/logger"
	"buildvive_backend/platform/phone"

	"github.com/google/uuid"
)

// Submission carries the fields of a new quote request.
type Submission struct {
	Name        string
	Email       string
	Phone       string
	ProjectType string
	Services    []string
	Location    string
	Size        string
	Timeline    string
	Budget      string
	Urgency     string
	Comments    string
}

// Service owns all quote transitions.
type Service struct {
	repo  *repository.Repository
	locks *store.KeyedMutex
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

// New creates the quote service. bus may be nil in tests.
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

// Get loads a quote by ID.
func (s *Service) Get(ctx context.Context, id string) (*repository.Quote, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("quote not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load quote", err)
	}
	return q, nil
}

// List returns all quotes.
func (s *Service) List(ctx context.Context) ([]*repository.Quote, error) {
	ids, err := s.repo.IDs(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list quotes", err)
	}
	out := make([]*repository.Quote, 0, len(ids))
	for _, id := range ids {
		q, err := s.repo.Get(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// Submit creates a new pending quote and announces it.
func (s *Service) Submit(ctx context.Context, sub Submission) (*repository.Quote, error) {
	q := &repository.Quote{
		ID:          uuid.NewString(),
		Name:        sub.Name,
		Email:       sub.Email,
		Phone:       phone.NormalizeE164(sub.Phone),
		ProjectType: sub.ProjectType,
		Services:    sub.Services,
		Location:    sub.Location,
		Size:        sub.Size,
		Timeline:    sub.Timeline,
		Budget:      sub.Budget,
		Urgency:     sub.Urgency,
		Comments:    sub.Comments,
		Status:      repository.StatusPending,
		SubmittedAt: s.now(),
	}
	if err := s.repo.Save(ctx, q); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "save quote", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.QuoteSubmitted{
			BaseEvent:   events.NewBaseEvent(),
			QuoteID:     q.ID,
			Name:        q.Name,
			Email:       q.Email,
			ProjectType: q.ProjectType,
		})
	}
	return q, nil
}

// Approve transitions pending → approved and computes responseTimeHours from
// the submission time, rounded to two decimals. The metric is assigned
// exactly once: re-approving an approved quote is a logged no-op that keeps
// the first approval's timestamp, metric and document URL.
func (s *Service) Approve(ctx context.Context, id, documentURL string, approvedAt time.Time) (*repository.Quote, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch q.Status {
	case repository.StatusApproved:
		s.log.StateConflict("quote", id, "approve", string(q.Status))
		return q, nil
	case repository.StatusRejected:
		s.log.StateConflict("quote", id, "approve", string(q.Status))
		return q, nil
	}

	if approvedAt.IsZero() {
		approvedAt = s.now()
	}
	hours := math.Round(approvedAt.Sub(q.SubmittedAt).Hours()*100) / 100

	q.History = append(q.History, repository.Transition{
		From:        q.Status,
		To:          repository.StatusApproved,
		At:          approvedAt,
		DocumentURL: documentURL,
	})
	q.Status = repository.StatusApproved
	q.DocumentURL = documentURL
	q.ApprovedAt = &approvedAt
	q.ResponseTimeHours = &hours

	if err := s.repo.Save(ctx, q); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "approve quote", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.QuoteApproved{
			BaseEvent:         events.NewBaseEvent(),
			QuoteID:           q.ID,
			Name:              q.Name,
			Email:             q.Email,
			DocumentURL:       q.DocumentURL,
			ApprovedAt:        approvedAt,
			ResponseTimeHours: hours,
		})
	}
	return q, nil
}

// Reject transitions pending → rejected.
func (s *Service) Reject(ctx context.Context, id, notes string) (*repository.Quote, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if q.IsTerminal() {
		s.log.StateConflict("quote", id, "reject", string(q.Status))
		return q, nil
	}

	q.History = append(q.History, repository.Transition{
		From:  q.Status,
		To:    repository.StatusRejected,
		At:    s.now(),
		Notes: notes,
	})
	q.Status = repository.StatusRejected
	if notes != "" {
		q.Notes = notes
	}

	if err := s.repo.Save(ctx, q); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "reject quote", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.QuoteRejected{
			BaseEvent: events.NewBaseEvent(),
			QuoteID:   q.ID,
			Name:      q.Name,
			Email:     q.Email,
			Notes:     notes,
		})
	}
	return q, nil
}

// RequestMoreInfo is the one deliberate regression: approved or rejected →
// pending. It clears the approval timestamp and response-time metric so a
// later approval computes a fresh one. Notes are mandatory; re-opening a
// conversation without saying why is useless to the operator picking it up.
func (s *Service) RequestMoreInfo(ctx context.Context, id, notes string) (*repository.Quote, error) {
	if notes == "" {
		return nil, apperr.Validation("notes are required to request more info")
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !q.IsTerminal() {
		s.log.StateConflict("quote", id, "request_more_info", string(q.Status))
		return q, nil
	}

	q.History = append(q.History, repository.Transition{
		From:  q.Status,
		To:    repository.StatusPending,
		At:    s.now(),
		Notes: notes,
	})
	q.Status = repository.StatusPending
	q.Notes = notes
	q.ApprovedAt = nil
	q.ResponseTimeHours = nil

	if err := s.repo.Save(ctx, q); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "reopen quote", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.QuoteInfoRequested{
			BaseEvent: events.NewBaseEvent(),
			QuoteID:   q.ID,
			Name:      q.Name,
			Email:     q.Email,
			Notes:     notes,
		})
	}
	return q, nil
}

// Delete removes a quote permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindInternal, "delete quote", err)
	}
	return nil
}

// Context returns the read-only snapshot the response generator personalizes
// with. A missing quote yields nil, nil: chat must keep working when the
// referenced quote was deleted.
func (s *Service) Context(ctx context.Context, id string) (*triage.QuoteContext, error) {
	if id == "" {
		return nil, nil
	}
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load quote context", err)
	}
	return &triage.QuoteContext{
		ID:          q.ID,
		Name:        q.Name,
		Email:       q.Email,
		Phone:       q.Phone,
		ProjectType: q.ProjectType,
		Services:    q.Services,
		Location:    q.Location,
		Size:        q.Size,
		Timeline:    q.Timeline,
		Budget:      q.Budget,
		Urgency:     q.Urgency,
		Comments:    q.Comments,
		SubmittedAt: q.SubmittedAt,
	}, nil
}
