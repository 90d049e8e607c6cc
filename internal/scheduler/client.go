// Package scheduler runs background jobs on asynq: the escalation follow-up
// check and the idle-session reaper.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"buildvive_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client        *asynq.Client
	queue         string
	followUpDelay time.Duration
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	followUpDelay := cfg.GetEscalationFollowUpDelay()
	if followUpDelay <= 0 {
		followUpDelay = 15 * time.Minute
	}

	return &Client{
		client:        asynq.NewClient(opt),
		queue:         queue,
		followUpDelay: followUpDelay,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleEscalationFollowUp implements escalation.FollowUpScheduler.
func (c *Client) ScheduleEscalationFollowUp(ctx context.Context, sessionID string) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewEscalationFollowUpTask(EscalationFollowUpPayload{SessionID: sessionID})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessIn(c.followUpDelay), asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
