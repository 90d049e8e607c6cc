package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"buildvive_backend/platform/logger"
)

type countingCloser struct {
	sweeps atomic.Int32
}

func (c *countingCloser) CloseIdleChatSessions(ctx context.Context, idleFor time.Duration) (int, error) {
	c.sweeps.Add(1)
	return 0, nil
}

func TestSessionReaperKeepsSweeping(t *testing.T) {
	closer := &countingCloser{}
	reaper := NewSessionReaper(closer, time.Hour, logger.New("development"))
	reaper.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for closer.sweeps.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("reaper stopped after %d sweeps, want at least 3", closer.sweeps.Load())
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop on context cancellation")
	}
}

func TestSessionReaperIntervalBounds(t *testing.T) {
	r := NewSessionReaper(&countingCloser{}, 0, logger.New("development"))
	if r.idleTimeout != defaultSessionIdleTimeout {
		t.Errorf("idleTimeout = %v, want default %v", r.idleTimeout, defaultSessionIdleTimeout)
	}
	if r.interval < minReaperInterval {
		t.Errorf("interval = %v, want at least %v", r.interval, minReaperInterval)
	}

	r = NewSessionReaper(&countingCloser{}, 6*time.Hour, logger.New("development"))
	if r.interval != 2*time.Hour {
		t.Errorf("interval = %v, want a third of the idle timeout", r.interval)
	}
}
