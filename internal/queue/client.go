package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(redisOpt asynq.RedisClientOpt, queueName string) *Client {
	return &Client{
		client: asynq.NewClient(redisOpt),
		queue:  queueName,
	}
}

func (c *Client) EnqueueNotification(ctx context.Context, payload NotificationPayload) (*asynq.TaskInfo, error) {
	task, err := NewNotifyEventTask(payload)
	if err != nil {
		return nil, err
	}
	info, err := c.client.EnqueueContext(
		ctx,
		task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", TypeNotifyEvent, err)
	}
	return info, nil
}

func (c *Client) EnqueueThumbnail(ctx context.Context, payload ThumbnailPayload) (*asynq.TaskInfo, error) {
	task, err := NewClipThumbnailTask(payload)
	if err != nil {
		return nil, err
	}
	info, err := c.client.EnqueueContext(
		ctx,
		task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(5),
		asynq.Timeout(3*time.Minute),
		asynq.TaskID("thumbnail:"+payload.ClipID),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", TypeClipThumbnail, err)
	}
	return info, nil
}

// EnqueueExpireOverdueJobs runs the overdue sweep once, outside the schedule.
func (c *Client) EnqueueExpireOverdueJobs(ctx context.Context) (*asynq.TaskInfo, error) {
	info, err := c.client.EnqueueContext(
		ctx,
		NewExpireOverdueJobsTask(),
		asynq.Queue(c.queue),
		asynq.MaxRetry(1),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", TypeExpireOverdueJobs, err)
	}
	return info, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// NewScheduler registers the periodic overdue-job sweep. An empty cronspec
// returns a nil scheduler.
func NewScheduler(redisOpt asynq.RedisClientOpt, queueName, cronspec string) (*asynq.Scheduler, error) {
	if cronspec == "" {
		return nil, nil
	}
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := scheduler.Register(
		cronspec,
		NewExpireOverdueJobsTask(),
		asynq.Queue(queueName),
		asynq.MaxRetry(1),
		asynq.Timeout(time.Minute),
	); err != nil {
		return nil, fmt.Errorf("register overdue sweep %q: %w", cronspec, err)
	}
	return scheduler, nil
}
