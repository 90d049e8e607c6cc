// Package escalation coordinates the hand-off of a conversation to a human
// operator.
package escalation

import (
	"context"

	"buildvive_backend/internal/events"
	"buildvive_backend/internal/sessions/repository"
	"buildvive_backend/internal/sessions/service"
	"buildvive_backend/platform/logger"
)

// Alert carries everything an operator channel needs to pick up a
// conversation.
type Alert struct {
	SessionID        string
	Reason           string
	TriggeringText   string
	ParticipantPhone string
	ParticipantName  string
}

// Notifier is the operator-channel capability. Implementations deliver the
// alert over whatever medium they own (SMS dispatch, pager, chat ops tool).
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// FollowUpScheduler enqueues a deferred check that someone actually picked
// the conversation up.
type FollowUpScheduler interface {
	ScheduleEscalationFollowUp(ctx context.Context, sessionID string) error
}

// Result reports how the hand-off went. Degraded means the state transition
// succeeded but the operator channel did not confirm delivery; the caller
// should answer with the degraded acknowledgment.
type Result struct {
	Degraded bool
}

// Coordinator applies the escalation transition and fans out its side
// effects.
type Coordinator struct {
	sessions  *service.Service
	notifier  Notifier
	scheduler FollowUpScheduler
	bus       events.Bus
	log       *logger.Logger
}

// New creates a coordinator. notifier, scheduler and bus may each be nil;
// missing channels degrade gracefully rather than block escalation.
func New(sessions *service.Service, notifier Notifier, scheduler FollowUpScheduler, bus events.Bus, log *logger.Logger) *Coordinator {
	return &Coordinator{
		sessions:  sessions,
		notifier:  notifier,
		scheduler: scheduler,
		bus:       bus,
		log:       log,
	}
}

// Escalate moves the session to escalated, records the hand-off in the turn
// history, and alerts the operator channel. The transition always wins: a
// failing notification never rolls it back, it only degrades the
// acknowledgment the customer sees.
func (c *Coordinator) Escalate(ctx context.Context, sessionID, reason, triggeringText string) (Result, error) {
	sess, err := c.sessions.Escalate(ctx, sessionID, reason)
	if err != nil {
		return Result{}, err
	}

	if _, err := c.sessions.AppendTurn(ctx, sessionID, repository.ChatTurn{
		Role: repository.RoleSystem,
		Text: "Conversation escalated to the team: " + reason,
	}); err != nil {
		c.log.StoreError("record escalation turn", err)
	}

	alert := Alert{
		SessionID:        sessionID,
		Reason:           reason,
		TriggeringText:   triggeringText,
		ParticipantPhone: sess.ParticipantPhone,
		ParticipantName:  sess.ParticipantName,
	}

	degraded := false
	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, alert); err != nil {
			c.log.ExternalServiceError("escalation notifier", err)
			degraded = true
		}
	}

	if c.bus != nil {
		c.bus.Publish(ctx, events.SessionEscalated{
			BaseEvent:        events.NewBaseEvent(),
			SessionID:        sessionID,
			Reason:           reason,
			TriggeringText:   triggeringText,
			ParticipantPhone: alert.ParticipantPhone,
			ParticipantName:  alert.ParticipantName,
		})
	}

	if c.scheduler != nil {
		if err := c.scheduler.ScheduleEscalationFollowUp(ctx, sessionID); err != nil {
			c.log.ExternalServiceError("escalation follow-up scheduler", err)
		}
	}

	return Result{Degraded: degraded}, nil
}
