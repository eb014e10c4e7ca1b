package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/clipit/internal/ratelimit"
	"go.uber.org/zap"
)

type RateLimiter interface {
	Allow(ctx context.Context, subject string) (ratelimit.Decision, error)
}

// withRateLimit throttles writes per user, or per client IP for anonymous
// callers. A failing limiter lets the request through.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.rateLimiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !shouldRateLimit(r) {
			next.ServeHTTP(w, r)
			return
		}

		subject := "ip:" + clientIP(r)
		if userID := s.tokenSubject(r); userID != "" {
			subject = "user:" + userID
		}

		decision, err := s.rateLimiter.Allow(r.Context(), subject)
		if err != nil {
			s.logger.Warn("rate limiter check failed", zap.String("subject", subject), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if decision.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := int(decision.RetryAfter.Round(time.Second).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		s.metrics.rateLimitRejected.WithLabelValues(r.Method).Inc()
		writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
	})
}

func shouldRateLimit(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
