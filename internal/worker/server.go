package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dunamismax/clipit/internal/config"
	"github.com/dunamismax/clipit/internal/domain"
	"github.com/dunamismax/clipit/internal/queue"
	"github.com/dunamismax/clipit/internal/store"
	"github.com/dunamismax/clipit/internal/thumbnail"
	"github.com/dunamismax/clipit/internal/webhook"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

type Server struct {
	logger     *zap.Logger
	server     *asynq.Server
	sem        chan struct{}
	thumbnails thumbnailProcessor
	webhooks   webhookSender
	users      store.UserStore
	clips      store.ClipStore
	jobs       store.JobStore
	metrics    *metrics
	tracer     trace.Tracer
	now        func() time.Time
}

type webhookSender interface {
	Send(ctx context.Context, endpoint, event string, payload any) error
}

type thumbnailProcessor interface {
	Process(ctx context.Context, clipID, objectKey string) ([]thumbnail.Output, error)
}

// Deps are the collaborators the task handlers need. Thumbnails may be nil
// when object storage is not configured; thumbnail tasks are then dropped.
type Deps struct {
	Store      store.Store
	Webhooks   webhookSender
	Thumbnails thumbnailProcessor
}

func NewServer(logger *zap.Logger, queueCfg config.QueueConfig, workerCfg config.WorkerConfig, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Webhooks == nil {
		return nil, errors.New("webhook sender is required")
	}

	s := newServer(logger, workerCfg.MaxActiveTasks, deps)
	s.server = asynq.NewServer(
		queueCfg.RedisClientOpt(),
		asynq.Config{
			Concurrency: workerCfg.Concurrency,
			Queues: map[string]int{
				queueCfg.Name: 1,
			},
			LogLevel: asynq.WarnLevel,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Warn("task failed",
					zap.String("type", task.Type()),
					zap.Int("retry", retried),
					zap.Int("max_retry", maxRetry),
					zap.Error(err),
				)
			}),
		},
	)
	return s, nil
}

func newServer(logger *zap.Logger, maxActive int, deps Deps) *Server {
	return &Server{
		logger:     logger,
		sem:        make(chan struct{}, max(1, maxActive)),
		thumbnails: deps.Thumbnails,
		webhooks:   deps.Webhooks,
		users:      deps.Store,
		clips:      deps.Store,
		jobs:       deps.Store,
		metrics:    newMetrics(),
		tracer:     otel.Tracer("clipit/worker"),
		now:        time.Now,
	}
}

func (s *Server) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeNotifyEvent, s.handleNotify)
	mux.HandleFunc(queue.TypeClipThumbnail, s.handleThumbnail)
	mux.HandleFunc(queue.TypeExpireOverdueJobs, s.handleExpireOverdue)
	return mux
}

// Run blocks until the process receives a termination signal.
func (s *Server) Run() error {
	return s.server.Run(s.Mux())
}

func (s *Server) Start() error {
	return s.server.Start(s.Mux())
}

func (s *Server) Shutdown() {
	s.server.Shutdown()
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) handleNotify(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParseNotificationPayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span := s.startSpan(ctx, "worker.notify",
		attribute.String("notify.event", payload.Event),
		attribute.String("notify.recipient_id", payload.RecipientID),
	)
	defer span.End()

	return s.track(task.Type(), span, func() (string, error) {
		user, err := s.users.GetUser(ctx, payload.RecipientID)
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("notification recipient gone", zap.String("recipient_id", payload.RecipientID))
			return outcomeSkipped, nil
		}
		if err != nil {
			return outcomeFailed, fmt.Errorf("load recipient: %w", err)
		}
		if strings.TrimSpace(user.WebhookURL) == "" {
			return outcomeSkipped, nil
		}

		body := map[string]any{
			"event":       payload.Event,
			"recipientId": payload.RecipientID,
			"occurredAt":  payload.OccurredAt,
			"data":        json.RawMessage(payload.Data),
		}
		if err := s.webhooks.Send(ctx, user.WebhookURL, payload.Event, body); err != nil {
			if errors.Is(err, webhook.ErrPermanent) {
				return outcomeFailed, fmt.Errorf("deliver %s: %v: %w", payload.Event, err, asynq.SkipRetry)
			}
			return outcomeFailed, fmt.Errorf("deliver %s: %w", payload.Event, err)
		}
		s.logger.Debug("notification delivered",
			zap.String("event", payload.Event),
			zap.String("recipient_id", payload.RecipientID),
		)
		return outcomeSucceeded, nil
	})
}

func (s *Server) handleThumbnail(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParseThumbnailPayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span := s.startSpan(ctx, "worker.clip_thumbnail",
		attribute.String("clip.id", payload.ClipID),
		attribute.String("clip.thumbnail_source", payload.ObjectKey),
	)
	defer span.End()

	return s.track(task.Type(), span, func() (string, error) {
		if s.thumbnails == nil {
			s.logger.Warn("thumbnail task dropped, object storage disabled", zap.String("clip_id", payload.ClipID))
			return outcomeSkipped, nil
		}

		s.sem <- struct{}{}
		s.metrics.activeTasks.Inc()
		defer func() {
			<-s.sem
			s.metrics.activeTasks.Dec()
		}()

		outputs, err := s.thumbnails.Process(ctx, payload.ClipID, payload.ObjectKey)
		if err != nil {
			return outcomeFailed, fmt.Errorf("render thumbnails: %w", err)
		}
		if len(outputs) == 0 {
			return outcomeFailed, fmt.Errorf("render thumbnails: no renditions: %w", asynq.SkipRetry)
		}
		s.metrics.renditionsTotal.Add(float64(len(outputs)))

		largest := outputs[len(outputs)-1]
		if err := s.clips.SetClipThumbnail(ctx, payload.ClipID, largest.ObjectKey); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return outcomeSkipped, nil
			}
			return outcomeFailed, fmt.Errorf("set clip thumbnail: %w", err)
		}
		s.logger.Info("clip thumbnails rendered",
			zap.String("clip_id", payload.ClipID),
			zap.Int("renditions", len(outputs)),
			zap.String("thumbnail", largest.ObjectKey),
		)
		return outcomeSucceeded, nil
	})
}

func (s *Server) handleExpireOverdue(ctx context.Context, task *asynq.Task) error {
	ctx, span := s.startSpan(ctx, "worker.expire_overdue_jobs")
	defer span.End()

	return s.track(task.Type(), span, func() (string, error) {
		n, err := s.jobs.ExpireOverdueJobs(ctx, s.now().UTC())
		if err != nil {
			return outcomeFailed, fmt.Errorf("expire overdue jobs: %w", err)
		}
		span.SetAttributes(attribute.Int64("jobs.expired", n))
		s.metrics.jobsExpiredTotal.Add(float64(n))
		if n > 0 {
			s.logger.Info("overdue jobs cancelled", zap.Int64("count", n))
		}
		return outcomeSucceeded, nil
	})
}

func (s *Server) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attrs...),
	)
}

// track records duration and outcome metrics for one task run.
func (s *Server) track(taskType string, span trace.Span, run func() (string, error)) error {
	startedAt := time.Now()
	outcome, err := run()

	s.metrics.taskDuration.WithLabelValues(taskType, outcome).Observe(time.Since(startedAt).Seconds())
	s.metrics.tasksTotal.WithLabelValues(taskType, outcome).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "task failed")
		return err
	}
	span.SetStatus(codes.Ok, outcome)
	return nil
}
