package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"salescrm_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues lead maintenance tasks.
type Client struct {
	client *asynq.Client
	queue  string
}

// ReleaseEnqueuer hands pool release tasks to the queue.
type ReleaseEnqueuer interface {
	// EnqueuePoolRelease reports queued=false when a task with the same id
	// is already pending.
	EnqueuePoolRelease(ctx context.Context, payload PoolReleasePayload, taskID string) (queued bool, err error)
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) EnqueuePoolRelease(ctx context.Context, payload PoolReleasePayload, taskID string) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}

	task, err := NewPoolReleaseTask(payload)
	if err != nil {
		return false, err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.TaskID(taskID), asynq.MaxRetry(5))
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

var _ ReleaseEnqueuer = (*Client)(nil)

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
