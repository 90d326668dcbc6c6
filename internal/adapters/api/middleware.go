package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poyrazK/hostsdns/internal/core/domain"
	"github.com/poyrazK/hostsdns/internal/core/ports"
	"github.com/poyrazK/hostsdns/internal/infrastructure/metrics"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// PrincipalFrom returns the principal AuthMiddleware stored in ctx.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(ctxPrincipal).(domain.Principal)
	return p, ok
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipal, p)
}

// AuthMiddleware rejects requests without a valid bearer credential and stores the
// authenticated principal in the request context.
func AuthMiddleware(auth ports.Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := auth.Verify(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, logger, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RateLimit refuses requests once the client IP exceeds its budget for route. Limiter
// failures let the request through.
func RateLimit(limiter ports.RateLimiter, route string, proxies TrustedProxies, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := limiter.Allow(r.Context(), route+":"+proxies.ClientIP(r))
			if err != nil {
				logger.Warn("rate limiter unavailable", "route", route, "error", err)
				ok = true
			}
			if !ok {
				metrics.RateLimited.WithLabelValues(route).Inc()
				w.Header().Set("Retry-After", "60")
				writeError(w, logger, r, domain.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs each request and records its duration by route pattern.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			metrics.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
