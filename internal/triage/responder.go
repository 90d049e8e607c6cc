package triage

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"buildvive_backend/platform/logger"
)

// Reply is the generated answer for one turn.
type Reply struct {
	Text     string
	Escalate bool
}

// AIResponder generates a free-form answer for a message, given an optional
// quote context block. Implementations must bound their own latency; the
// responder treats any error as a signal to fall back to scripted text.
type AIResponder interface {
	Respond(ctx context.Context, message, contextBlock string) (string, error)
}

const clarificationPrompt = "I didn't quite catch that — could you type your question again? " +
	"You can ask about renovations, repairs, project timelines or budgeting, " +
	"or say \"call me\" and our team will reach out."

const handoffAck = "Absolutely — I'm connecting you with our team right now. " +
	"Someone will call you within the next few minutes. " +
	"If this is an emergency, please call us directly at (555) 014-7300."

const thanksAck = "You're very welcome! If anything else comes up with your project, I'm right here."

var greetingRotation = []string{
	"Hi there! I'm the BuildVive assistant. Ask me anything about renovations, repairs or your quote.",
	"Hello! How can I help with your project today?",
	"Hey! Whether it's a leaky pipe or a full remodel, I'm happy to help. What's going on?",
	"Welcome to BuildVive Renovations! What can I do for you today?",
}

// Responder turns a classification plus optional quote context into response
// text. Emergencies and escalations are always answered from script; the AI
// backend, when configured, handles everything the scripts don't cover.
type Responder struct {
	lex      *Lexicon
	ai       AIResponder // nil when no AI backend is configured
	log      *logger.Logger
	greetIdx atomic.Uint64
}

// NewResponder creates a responder. ai may be nil.
func NewResponder(lex *Lexicon, ai AIResponder, log *logger.Logger) *Responder {
	return &Responder{lex: lex, ai: ai, log: log}
}

// Respond generates the reply for one classified message.
//
// Priority is fixed regardless of configuration: scripted emergency answers
// first (safety steps must be deterministic, so emergencies never reach the
// AI), then explicit escalation, then the AI backend, then the rule-based
// fallback chain. AI failures are logged and absorbed; the user always gets
// an answer.
func (r *Responder) Respond(ctx context.Context, message string, cls Classification, quote *QuoteContext) Reply {
	if !cls.IsValid {
		return Reply{Text: clarificationPrompt}
	}

	if cls.HasEmergency() {
		return Reply{Text: r.lex.EmergencyResponse(cls.Emergencies[0])}
	}

	if cls.WantsEscalation {
		return Reply{Text: handoffAck, Escalate: true}
	}

	if r.ai != nil {
		text, err := r.ai.Respond(ctx, message, quote.ContextBlock())
		if err != nil {
			r.log.ExternalServiceError("ai_responder", err)
		} else {
			return Reply{Text: text}
		}
	}

	return Reply{Text: r.fallback(cls, quote)}
}

func (r *Responder) fallback(cls Classification, quote *QuoteContext) string {
	switch {
	case cls.HasAdvice():
		key := cls.Advice[0]
		if key == TopicTimeline {
			return timelineAdvice(quote)
		}
		return r.lex.AdviceResponse(key)
	case cls.IsGreeting:
		idx := r.greetIdx.Add(1) - 1
		return greetingRotation[idx%uint64(len(greetingRotation))]
	case cls.IsThanks:
		return thanksAck
	case cls.IsAffirmative:
		return affirmativeMenu(quote)
	default:
		return defaultMenu()
	}
}

// timelineAdvice synthesizes a timeline answer from the quote context
// instead of a static script, since a useful answer depends on the project.
func timelineAdvice(quote *QuoteContext) string {
	if quote == nil {
		return "Project timelines depend heavily on scope: a bathroom refresh runs 2-3 weeks, " +
			"a kitchen 4-8 weeks, and whole-home renovations 3-6 months. " +
			"Submit a quote request with your project details and we'll give you a dated schedule."
	}

	var b strings.Builder
	b.WriteString("Based on your quote request")
	if quote.Size != "" {
		fmt.Fprintf(&b, " (%s)", quote.Size)
	}
	b.WriteString(":\n")

	if len(quote.Services) > 0 {
		fmt.Fprintf(&b, "- Work requested: %s.\n", strings.Join(quote.Services, ", "))
	}
	switch strings.ToLower(quote.Urgency) {
	case "urgent", "asap", "emergency":
		b.WriteString("- Given the urgency you indicated, we can typically mobilize a crew within 1-2 business days.\n")
	default:
		b.WriteString("- For standard scheduling, most projects this size start within 2-3 weeks of quote approval.\n")
	}
	b.WriteString("Your estimator will confirm an exact start date and duration with your approved quote.")
	return b.String()
}

func affirmativeMenu(quote *QuoteContext) string {
	if quote != nil && len(quote.Services) > 0 {
		return fmt.Sprintf(
			"Great! For your %s project I can help with:\n"+
				"- Timeline and scheduling questions\n"+
				"- Budget and materials guidance\n"+
				"- The status of your quote\n"+
				"Or say \"call me\" and our team will reach out directly.",
			strings.Join(quote.Services, " and "))
	}
	return "Great! Here's what I can help with:\n" +
		"- Emergency guidance (leaks, gas, electrical)\n" +
		"- Renovation planning, budgeting and materials advice\n" +
		"- Submitting or checking a quote request\n" +
		"Or say \"call me\" and our team will reach out directly."
}

func defaultMenu() string {
	return "I'm not sure I understood that, but here's what I can help with:\n" +
		"- Emergencies: plumbing leaks, gas smells, electrical hazards, structural damage\n" +
		"- Advice: renovation planning, timelines, budgeting, permits, materials\n" +
		"- Your quote: submit a request on our website or ask about an existing one\n" +
		"You can also say \"call me\" to talk to a person."
}

// PersonalizedGreeting builds the greeting returned for the QUOTE_SUBMITTED
// sentinel, acknowledging the customer's just-submitted request.
func PersonalizedGreeting(quote *QuoteContext) string {
	if quote == nil {
		return "Thanks for your quote request! Our team is reviewing it and will get back to you shortly. " +
			"Meanwhile, feel free to ask me anything about your project."
	}

	name := strings.TrimSpace(quote.Name)
	greeting := "Thanks for your quote request"
	if name != "" {
		greeting = fmt.Sprintf("Thanks for your quote request, %s", firstName(name))
	}

	var b strings.Builder
	b.WriteString(greeting)
	if quote.ProjectType != "" {
		fmt.Fprintf(&b, "! We've received the details for your %s project", strings.ToLower(quote.ProjectType))
	} else {
		b.WriteString("! We've received your project details")
	}
	if quote.Location != "" {
		fmt.Fprintf(&b, " in %s", quote.Location)
	}
	b.WriteString(".\n")
	b.WriteString("An estimator is reviewing it now — most quotes go out within one business day.\n")
	b.WriteString("While you wait, ask me anything about timelines, budgeting or materials.")
	return b.String()
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return full
	}
	return fields[0]
}
