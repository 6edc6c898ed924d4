package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/logging"
	"github.com/dmitrijs2005/impacthands/internal/server/auth"
	"github.com/dmitrijs2005/impacthands/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type claimsKey struct{}

// ClaimsFrom returns the claims RequireAuth stored in ctx.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

// Authenticator validates a bearer token, including revocation.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and puts the
// token claims into the request context.
func RequireAuth(a Authenticator, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get(common.AuthorizationHeaderName), common.BearerPrefix)
			if !ok || token == "" {
				log.Warn(ctx, "missing bearer token", "request_id", middleware.GetReqID(ctx))
				writeJSON(w, http.StatusUnauthorized, errorBody{
					Error:   "unauthorized",
					Message: "Missing or invalid Authorization header",
				})
				return
			}
			claims, err := a.Authenticate(ctx, token)
			if err != nil {
				log.Warn(ctx, "rejected bearer token", "request_id", middleware.GetReqID(ctx), "error", err)
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, claimsKey{}, claims)))
		})
	}
}

// requestLogger logs one line per request once it has been served.
func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info(r.Context(), "request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(start),
			)
		})
	}
}

// instrument records latency per route pattern so path parameters do not
// explode label cardinality.
func instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveHTTP(route, r.Method, status, time.Since(start))
		})
	}
}
