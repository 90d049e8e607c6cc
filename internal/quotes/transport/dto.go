// Package transport defines the wire contracts for quote submission and
// status updates.
package transport

import (
	"time"

	"buildvive_backend/internal/quotes/repository"
)

// SubmitQuoteRequest is the body for POST /quote.
type SubmitQuoteRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Email       string   `json:"email" validate:"required,email"`
	Phone       string   `json:"phone" validate:"max=30"`
	ProjectType string   `json:"projectType" validate:"required,max=100"`
	Services    []string `json:"services" validate:"max=20,dive,max=100"`
	Location    string   `json:"location" validate:"max=200"`
	Size        string   `json:"size" validate:"max=100"`
	Timeline    string   `json:"timeline" validate:"max=200"`
	Budget      string   `json:"budget" validate:"max=100"`
	Urgency     string   `json:"urgency" validate:"max=100"`
	Comments    string   `json:"comments" validate:"max=4000"`
}

// UpdateQuoteRequest is the body for PUT /quote. Status selects the
// transition; the other fields attach to it.
type UpdateQuoteRequest struct {
	QuoteID      string     `json:"quoteId" validate:"required"`
	Status       string     `json:"status" validate:"required,oneof=approved rejected pending"`
	Notes        string     `json:"notes" validate:"max=4000"`
	QuotationURL string     `json:"quotationUrl" validate:"max=1000"`
	ApprovedAt   *time.Time `json:"approvedAt"`
}

// DeleteQuoteRequest is the body for DELETE /quote.
type DeleteQuoteRequest struct {
	QuoteID string `json:"quoteId" validate:"required"`
}

// TransitionResponse is one history entry in quote reads.
type TransitionResponse struct {
	From        string    `json:"from"`
	To          string    `json:"to"`
	At          time.Time `json:"at"`
	Notes       string    `json:"notes,omitempty"`
	DocumentURL string    `json:"documentUrl,omitempty"`
}

// QuoteResponse is the read model for a quote.
type QuoteResponse struct {
	ID                string               `json:"id"`
	Name              string               `json:"name"`
	Email             string               `json:"email"`
	Phone             string               `json:"phone,omitempty"`
	ProjectType       string               `json:"projectType"`
	Services          []string             `json:"services,omitempty"`
	Location          string               `json:"location,omitempty"`
	Size              string               `json:"size,omitempty"`
	Timeline          string               `json:"timeline,omitempty"`
	Budget            string               `json:"budget,omitempty"`
	Urgency           string               `json:"urgency,omitempty"`
	Comments          string               `json:"comments,omitempty"`
	Status            string               `json:"status"`
	Notes             string               `json:"notes,omitempty"`
	DocumentURL       string               `json:"quotationDocumentUrl,omitempty"`
	SubmittedAt       time.Time            `json:"submittedAt"`
	ApprovedAt        *time.Time           `json:"approvedAt,omitempty"`
	ResponseTimeHours *float64             `json:"responseTimeHours,omitempty"`
	History           []TransitionResponse `json:"history,omitempty"`
}

// ToQuoteResponse maps a stored quote to its read model.
func ToQuoteResponse(q *repository.Quote) QuoteResponse {
	history := make([]TransitionResponse, 0, len(q.History))
	for _, tr := range q.History {
		history = append(history, TransitionResponse{
			From:        string(tr.From),
			To:          string(tr.To),
			At:          tr.At,
			Notes:       tr.Notes,
			DocumentURL: tr.DocumentURL,
		})
	}
	return QuoteResponse{
		ID:                q.ID,
		Name:              q.Name,
		Email:             q.Email,
		Phone:             q.Phone,
		ProjectType:       q.ProjectType,
		Services:          q.Services,
		Location:          q.Location,
		Size:              q.Size,
		Timeline:          q.Timeline,
		Budget:            q.Budget,
		Urgency:           q.Urgency,
		Comments:          q.Comments,
		Status:            string(q.Status),
		Notes:             q.Notes,
		DocumentURL:       q.DocumentURL,
		SubmittedAt:       q.SubmittedAt,
		ApprovedAt:        q.ApprovedAt,
		ResponseTimeHours: q.ResponseTimeHours,
		History:           history,
	}
}
