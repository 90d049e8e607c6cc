package triage

import (
	"fmt"
	"strings"
	"time"
)

// QuoteContext is a read-only snapshot of a submitted quote request, used to
// personalize responses. The triage engine never mutates it.
type QuoteContext struct {
	ID          string
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
	SubmittedAt time.Time
}

// ContextBlock renders the quote fields as a prompt context block for the AI
// backend. Empty fields are omitted.
func (q *QuoteContext) ContextBlock() string {
	if q == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("Customer quote request on file:\n")
	writeField(&b, "Name", q.Name)
	writeField(&b, "Project type", q.ProjectType)
	writeField(&b, "Services", strings.Join(q.Services, ", "))
	writeField(&b, "Location", q.Location)
	writeField(&b, "Size", q.Size)
	writeField(&b, "Timeline", q.Timeline)
	writeField(&b, "Budget", q.Budget)
	writeField(&b, "Urgency", q.Urgency)
	writeField(&b, "Comments", q.Comments)
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}
