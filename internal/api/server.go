package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/clipit/internal/auth"
	"github.com/dunamismax/clipit/internal/domain"
	"github.com/dunamismax/clipit/internal/id"
	"github.com/dunamismax/clipit/internal/queue"
	"github.com/dunamismax/clipit/internal/storage"
	"github.com/dunamismax/clipit/internal/store"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultMaxBodyBytes = 10 << 20

var errStorageUnavailable = errors.New("object storage is unavailable")

type Server struct {
	logger       *zap.Logger
	store        store.Store
	tokens       *auth.TokenIssuer
	queueClient  queueEnqueuer
	storage      objectStorage
	rateLimiter  RateLimiter
	metrics      *metrics
	tracer       trace.Tracer
	frontendURL  string
	maxBodyBytes int64
	presignTTL   time.Duration
	bcryptCost   int
	now          func() time.Time
	mux          *http.ServeMux
}

type queueEnqueuer interface {
	EnqueueNotification(ctx context.Context, payload queue.NotificationPayload) (*asynq.TaskInfo, error)
	EnqueueThumbnail(ctx context.Context, payload queue.ThumbnailPayload) (*asynq.TaskInfo, error)
}

type objectStorage interface {
	PresignUpload(ctx context.Context, userID, kind, contentType string, expiry time.Duration) (storage.Upload, error)
	ObjectExists(ctx context.Context, objectKey string) (bool, error)
}

// Options wires the server's collaborators. Store and Tokens are required;
// a nil Storage serves 503 on uploads and a nil RateLimiter disables limiting.
type Options struct {
	Store        store.Store
	Tokens       *auth.TokenIssuer
	Queue        queueEnqueuer
	Storage      objectStorage
	RateLimiter  RateLimiter
	FrontendURL  string
	MaxBodyBytes int64
	PresignTTL   time.Duration
	BcryptCost   int
}

func NewServer(logger *zap.Logger, opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 15 * time.Minute
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = auth.DefaultBcryptCost
	}
	if opts.Storage == nil {
		opts.Storage = unavailableObjectStorage{}
	}

	s := &Server{
		logger:       logger,
		store:        opts.Store,
		tokens:       opts.Tokens,
		queueClient:  opts.Queue,
		storage:      opts.Storage,
		rateLimiter:  opts.RateLimiter,
		metrics:      newMetrics(),
		tracer:       otel.Tracer("clipit/api"),
		frontendURL:  strings.TrimRight(opts.FrontendURL, "/"),
		maxBodyBytes: opts.MaxBodyBytes,
		presignTTL:   opts.PresignTTL,
		bcryptCost:   opts.BcryptCost,
		now:          func() time.Time { return time.Now().UTC() },
		mux:          http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

type unavailableObjectStorage struct{}

func (unavailableObjectStorage) PresignUpload(context.Context, string, string, string, time.Duration) (storage.Upload, error) {
	return storage.Upload{}, errStorageUnavailable
}

func (unavailableObjectStorage) ObjectExists(context.Context, string) (bool, error) {
	return false, errStorageUnavailable
}

// Handler returns the mux wrapped in the global middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.withRateLimit(h)
	h = s.withBodyLimit(h)
	h = s.withCORS(h)
	h = withSecurityHeaders(h)
	h = s.withRequestLogging(h)
	h = s.withRecover(h)
	return h
}

func (s *Server) routes() {
	s.handle("GET /api/health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())

	s.handle("POST /api/auth/register", s.handleRegister)
	s.handle("POST /api/auth/login", s.handleLogin)
	s.handle("GET /api/auth/me", s.authenticated(s.handleMe))

	s.handle("GET /api/users/{id}", s.handleGetUser)
	s.handle("PUT /api/users/profile", s.authenticated(s.handleUpdateProfile))
	s.handle("GET /api/users/{id}/stats", s.handleUserStats)
	s.handle("GET /api/users/{id}/reviews", s.handleUserReviews)
	s.handle("GET /api/leaderboard", s.handleLeaderboard)

	s.handle("GET /api/jobs", s.handleListJobs)
	s.handle("GET /api/jobs/{id}", s.handleGetJob)
	s.handle("POST /api/jobs", s.requireRole(domain.RoleCreator, s.handleCreateJob))
	s.handle("PUT /api/jobs/{id}/status", s.authenticated(s.handleUpdateJobStatus))
	s.handle("POST /api/jobs/{id}/apply", s.requireRole(domain.RoleClipper, s.handleApply))
	s.handle("GET /api/jobs/{id}/applications", s.authenticated(s.handleJobApplications))

	s.handle("GET /api/applications/mine", s.requireRole(domain.RoleClipper, s.handleMyApplications))
	s.handle("PUT /api/applications/{id}/status", s.authenticated(s.handleDecideApplication))

	s.handle("GET /api/clips/job/{jobId}", s.authenticated(s.handleJobClips))
	s.handle("GET /api/clips/my-clips", s.authenticated(s.handleMyClips))
	s.handle("POST /api/clips", s.authenticated(s.handleSubmitClip))
	s.handle("PUT /api/clips/{id}/status", s.authenticated(s.handleReviewClip))
	s.handle("PUT /api/clips/{id}/performance", s.authenticated(s.handleClipPerformance))
	s.handle("POST /api/clips/{id}/live", s.authenticated(s.handlePublishClip))

	s.handle("POST /api/uploads", s.authenticated(s.handleCreateUpload))

	s.handle("GET /api/payments/history", s.authenticated(s.handlePaymentHistory))
	s.handle("POST /api/payments", s.authenticated(s.handleCreatePayment))
	s.handle("PUT /api/payments/{id}/status", s.authenticated(s.handleUpdatePaymentStatus))
	s.handle("GET /api/payments/stats", s.authenticated(s.handlePaymentStats))

	s.handle("POST /api/reviews", s.authenticated(s.handleCreateReview))

	s.mux.Handle("/", s.instrument("unmatched", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})))
}

// handle registers a route instrumented under its pattern.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.instrument(pattern, h))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": s.now().Format(time.RFC3339Nano),
		"service":   "ClipIt Backend API",
	})
}

// notify enqueues a webhook notification. Failures are logged only; the
// request that triggered the event has already succeeded.
func (s *Server) notify(ctx context.Context, event, recipientID string, data any) {
	if s.queueClient == nil || recipientID == "" {
		return
	}
	payload, err := queue.NewNotification(event, recipientID, data, s.now())
	if err != nil {
		s.logger.Error("build notification failed", zap.String("event", event), zap.Error(err))
		return
	}
	info, err := s.queueClient.EnqueueNotification(ctx, payload)
	if err != nil {
		s.logger.Warn("enqueue notification failed",
			zap.String("event", event),
			zap.String("recipient_id", recipientID),
			zap.Error(err),
		)
		return
	}
	s.metrics.queueEnqueued.WithLabelValues(info.Queue, queue.TypeNotifyEvent).Inc()
}

func (s *Server) enqueueThumbnail(ctx context.Context, clipID, objectKey string) {
	if s.queueClient == nil {
		return
	}
	info, err := s.queueClient.EnqueueThumbnail(ctx, queue.ThumbnailPayload{
		ClipID:      clipID,
		ObjectKey:   objectKey,
		RequestedAt: s.now(),
	})
	if err != nil {
		s.logger.Warn("enqueue thumbnail failed", zap.String("clip_id", clipID), zap.Error(err))
		return
	}
	s.metrics.queueEnqueued.WithLabelValues(info.Queue, queue.TypeClipThumbnail).Inc()
}

// pathID reads a UUID path value; anything else cannot name a row.
func pathID(r *http.Request, name, what string) (string, error) {
	v := r.PathValue(name)
	if !id.Valid(v) {
		return "", domain.Errorf(domain.ErrNotFound, "%s not found", what)
	}
	return v, nil
}

func pageFromQuery(r *http.Request) (domain.Page, error) {
	q := r.URL.Query()
	number, err := intQuery(q.Get("page"), 1)
	if err != nil {
		return domain.Page{}, domain.Errorf(domain.ErrValidation, "page must be a number")
	}
	size, err := intQuery(q.Get("limit"), domain.DefaultPageSize)
	if err != nil {
		return domain.Page{}, domain.Errorf(domain.ErrValidation, "limit must be a number")
	}
	return domain.NewPage(number, size), nil
}

func intQuery(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func floatQuery(raw, name string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.Errorf(domain.ErrValidation, "%s must be a number", name)
	}
	return &v, nil
}

func decodeJSON(r *http.Request, into any) error {
	return decodeBody(r, into, false)
}

// decodeOptionalJSON accepts an empty body as the zero value, declared or
// chunked.
func decodeOptionalJSON(r *http.Request, into any) error {
	if r.ContentLength == 0 {
		return nil
	}
	return decodeBody(r, into, true)
}

func decodeBody(r *http.Request, into any, optional bool) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(into); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return domain.Errorf(domain.ErrValidation, "invalid JSON body: %v", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return domain.Errorf(domain.ErrValidation, "invalid JSON body: multiple JSON values are not allowed")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// fail maps err onto a response. Domain errors carry their own status and
// message; everything else is logged and answered with a generic 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	if errors.Is(err, errStorageUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured")
		return
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		writeError(w, statusForKind(domainErr.Kind), domainErr.Message)
		return
	}

	s.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func statusForKind(kind error) int {
	switch {
	case errors.Is(kind, domain.ErrValidation), errors.Is(kind, domain.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(kind, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
