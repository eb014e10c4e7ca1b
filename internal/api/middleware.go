package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dunamismax/clipit/internal/domain"
	"github.com/dunamismax/clipit/internal/id"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

type contextKey int

const requestInfoKey contextKey = 0

// requestInfo is shared between the outer logging middleware and the
// per-route instrumentation, which fills in the matched route.
type requestInfo struct {
	id    string
	route string
}

func requestIDFrom(ctx context.Context) string {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		return info.id
	}
	return ""
}

func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error("handler panic",
				zap.Any("panic", rec),
				zap.String("path", r.URL.Path),
				zap.String("request_id", requestIDFrom(r.Context())),
				zap.ByteString("stack", debug.Stack()),
			)
			writeError(w, http.StatusInternalServerError, "Something went wrong!")
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &requestInfo{id: strings.TrimSpace(r.Header.Get(headerRequestID))}
		if info.id == "" || len(info.id) > 128 {
			info.id = id.New()
		}
		w.Header().Set(headerRequestID, info.id)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r.WithContext(context.WithValue(r.Context(), requestInfoKey, info)))

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", info.route),
			zap.Int("status", recorder.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_ip", clientIP(r)),
			zap.String("request_id", info.id),
		)
	})
}

// withSecurityHeaders sets the response headers browsers use to sandbox a JSON API.
func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", "default-src 'self';base-uri 'self';frame-ancestors 'self';object-src 'none'")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-Permitted-Cross-Domain-Policies", "none")
		h.Set("X-XSS-Protection", "0")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.frontendURL != "" && strings.TrimRight(origin, "/") == s.frontendURL {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
				if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
					h.Set("Access-Control-Allow-Headers", reqHeaders)
				}
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withBodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// authenticated resolves the bearer token to a live user before calling next.
func (s *Server) authenticated(next func(http.ResponseWriter, *http.Request, domain.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.authenticate(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		next(w, r, user)
	}
}

func (s *Server) requireRole(role string, next func(http.ResponseWriter, *http.Request, domain.User)) http.HandlerFunc {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if user.Role != role {
			writeError(w, http.StatusForbidden, role+" role required")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authenticate(r *http.Request) (domain.User, error) {
	token := bearerToken(r)
	if token == "" {
		return domain.User{}, domain.Errorf(domain.ErrUnauthorized, "Access token required")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return domain.User{}, domain.Errorf(domain.ErrForbidden, "Invalid or expired token")
	}
	if !id.Valid(claims.UserID) {
		return domain.User{}, domain.Errorf(domain.ErrUnauthorized, "User not found")
	}
	user, err := s.store.GetUser(r.Context(), claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.Errorf(domain.ErrUnauthorized, "User not found")
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// tokenSubject returns the user id of a valid bearer token without touching
// the store, or "" when there is none.
func (s *Server) tokenSubject(r *http.Request) string {
	token := bearerToken(r)
	if token == "" {
		return ""
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return ""
	}
	return claims.UserID
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
