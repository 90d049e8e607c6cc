package scheduler

import (
	"context"
	"fmt"

	"buildvive_backend/internal/sessions/repository"
	sessionsvc "buildvive_backend/internal/sessions/service"
	"buildvive_backend/platform/config"
	"buildvive_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// FollowUpAlerter re-raises an escalation that nobody picked up.
type FollowUpAlerter interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	sessions *sessionsvc.Service
	alerter  FollowUpAlerter
	opsPhone string
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sessions *sessionsvc.Service, alerter FollowUpAlerter, opsPhone string, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		sessions: sessions,
		alerter:  alerter,
		opsPhone: opsPhone,
		log:      log,
	}

	mux.HandleFunc(TaskEscalationFollowUp, w.handleEscalationFollowUp)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleEscalationFollowUp checks whether an escalated session got a human
// reply; if it is still sitting untouched, the on-call number gets a second
// nudge.
func (w *Worker) handleEscalationFollowUp(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseEscalationFollowUpPayload(task)
	if err != nil {
		return err
	}

	sess, err := w.sessions.Get(ctx, payload.SessionID)
	if err != nil {
		// Deleted or never persisted; nothing to follow up on.
		w.log.Warn("follow-up for unknown session", "session_id", payload.SessionID)
		return nil
	}

	if sess.Status != repository.StatusEscalated || sess.EndedAt != nil {
		return nil
	}

	if w.alerter == nil || w.opsPhone == "" {
		w.log.Warn("escalation still unattended, no follow-up channel configured", "session_id", sess.ID)
		return nil
	}

	msg := "Reminder: escalated chat session " + sess.ID + " is still waiting for a human"
	if sess.ParticipantPhone != "" {
		msg += " (visitor " + sess.ParticipantPhone + ")"
	}
	if err := w.alerter.SendMessage(ctx, w.opsPhone, msg); err != nil {
		w.log.ExternalServiceError("escalation follow-up alert", err)
		return err
	}

	w.log.Info("escalation follow-up alert sent", "session_id", sess.ID)
	return nil
}
