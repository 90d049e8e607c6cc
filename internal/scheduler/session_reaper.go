package scheduler

import (
	"context"
	"time"

	"buildvive_backend/platform/logger"
)

const (
	defaultSessionIdleTimeout = 30 * time.Minute
	minReaperInterval         = time.Minute
)

// IdleSessionCloser completes chat sessions with no recent activity.
type IdleSessionCloser interface {
	CloseIdleChatSessions(ctx context.Context, idleFor time.Duration) (int, error)
}

// SessionReaper periodically sweeps idle chat sessions. It runs on its own
// ticker rather than as a queued task so a failed sweep never stops the
// next one.
type SessionReaper struct {
	sessions    IdleSessionCloser
	idleTimeout time.Duration
	interval    time.Duration
	log         *logger.Logger
}

func NewSessionReaper(sessions IdleSessionCloser, idleTimeout time.Duration, log *logger.Logger) *SessionReaper {
	if idleTimeout <= 0 {
		idleTimeout = defaultSessionIdleTimeout
	}

	// Sweep often enough that a session never sits idle for much longer
	// than the configured timeout.
	interval := idleTimeout / 3
	if interval < minReaperInterval {
		interval = minReaperInterval
	}

	return &SessionReaper{
		sessions:    sessions,
		idleTimeout: idleTimeout,
		interval:    interval,
		log:         log,
	}
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (r *SessionReaper) Run(ctx context.Context) {
	if r == nil || r.sessions == nil {
		return
	}

	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		r.sweep(ctx)
	}
}

func (r *SessionReaper) sweep(ctx context.Context) {
	closed, err := r.sessions.CloseIdleChatSessions(ctx, r.idleTimeout)
	if err != nil {
		r.log.Error("session reaper sweep failed", "error", err)
		return
	}
	if closed > 0 {
		r.log.Info("idle sessions closed", "count", closed)
	}
}
