package main

import (
	"context"
	"time"

	"github.com/dunamismax/clipit/internal/config"
	"github.com/dunamismax/clipit/internal/domain"
	"github.com/dunamismax/clipit/internal/queue"
	"github.com/dunamismax/clipit/internal/store"
	"github.com/hibiken/asynq"
)

type adminStore interface {
	EnsureSchema(ctx context.Context) error
	ExpireOverdueJobs(ctx context.Context, now time.Time) (int64, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	Close() error
}

type sweepEnqueuer interface {
	EnqueueExpireOverdueJobs(ctx context.Context) (*asynq.TaskInfo, error)
	Close() error
}

// commandContext opens backends lazily so that each subcommand only needs
// the settings for what it touches.
type commandContext struct {
	openStore func(ctx context.Context) (adminStore, error)
	openQueue func() (sweepEnqueuer, error)
	now       func() time.Time
}

func newCommandContext() *commandContext {
	return &commandContext{
		openStore: openPostgres,
		openQueue: openQueue,
		now:       time.Now,
	}
}

func (c *commandContext) withStore(ctx context.Context, fn func(adminStore) error) error {
	db, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func openPostgres(ctx context.Context) (adminStore, error) {
	dbCfg, err := config.LoadSection[config.DatabaseConfig]()
	if err != nil {
		return nil, err
	}
	db, err := store.NewPostgresStore(ctx, dbCfg.DSN, store.PoolOptions{
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func openQueue() (sweepEnqueuer, error) {
	queueCfg, err := config.LoadSection[config.QueueConfig]()
	if err != nil {
		return nil, err
	}
	return queue.NewClient(queueCfg.RedisClientOpt(), queueCfg.Name), nil
}
