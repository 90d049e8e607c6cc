// Package repository persists quote records as JSON documents in the
// key-value store.
package repository

import (
	"context"
	"errors"
	"time"

	"buildvive_backend/internal/store"
)

// Status is a quote's lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Transition is one applied status change. Notes and the document URL attach
// here rather than floating on the quote so the history stays reconstructable.
type Transition struct {
	From        Status    `json:"from"`
	To          Status    `json:"to"`
	At          time.Time `json:"at"`
	Notes       string    `json:"notes,omitempty"`
	DocumentURL string    `json:"documentUrl,omitempty"`
}

// Quote is a customer's project request with its approval lifecycle.
type Quote struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone,omitempty"`
	ProjectType string   `json:"projectType"`
	Services    []string `json:"services,omitempty"`
	Location    string   `json:"location,omitempty"`
	Size        string   `json:"size,omitempty"`
	Timeline    string   `json:"timeline,omitempty"`
	Budget      string   `json:"budget,omitempty"`
	Urgency     string   `json:"urgency,omitempty"`
	Comments    string   `json:"comments,omitempty"`

	Status            Status     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	DocumentURL       string     `json:"quotationDocumentUrl,omitempty"`
	SubmittedAt       time.Time  `json:"submittedAt"`
	ApprovedAt        *time.Time `json:"approvedAt,omitempty"`
	ResponseTimeHours *float64   `json:"responseTimeHours,omitempty"`

	History []Transition `json:"history,omitempty"`
}

// IsTerminal reports whether the quote left the pending state. Terminal here
// is soft: requestMoreInfo can still return it to pending.
func (q *Quote) IsTerminal() bool {
	return q.Status == StatusApproved || q.Status == StatusRejected
}

// ErrNotFound is returned when no quote exists for an ID.
var ErrNotFound = errors.New("quote not found")

const (
	quotePrefix = "quote:"
	indexKey    = "quotes:index"
)

// Repository stores quotes and a flat ID index for listing.
type Repository struct {
	store store.Store
	locks *store.KeyedMutex
}

func New(s store.Store) *Repository {
	return &Repository{store: s, locks: store.NewKeyedMutex()}
}

func (r *Repository) Get(ctx context.Context, id string) (*Quote, error) {
	var q Quote
	if err := r.store.Get(ctx, quotePrefix+id, &q); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *Repository) Save(ctx context.Context, q *Quote) error {
	if err := r.store.Set(ctx, quotePrefix+q.ID, q); err != nil {
		return err
	}
	return r.updateIndex(ctx, q.ID, true)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, quotePrefix+id); err != nil {
		return err
	}
	return r.updateIndex(ctx, id, false)
}

// IDs returns all known quote IDs, newest registration last.
func (r *Repository) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.store.Get(ctx, indexKey, &ids); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ids, nil
}

func (r *Repository) updateIndex(ctx context.Context, id string, present bool) error {
	r.locks.Lock(indexKey)
	defer r.locks.Unlock(indexKey)

	var ids []string
	if err := r.store.Get(ctx, indexKey, &ids); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	found := -1
	for i, existing := range ids {
		if existing == id {
			found = i
			break
		}
	}

	switch {
	case present && found == -1:
		ids = append(ids, id)
	case !present && found != -1:
		ids = append(ids[:found], ids[found+1:]...)
	default:
		return nil
	}
	return r.store.Set(ctx, indexKey, ids)
}
