package httpx

import (
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/auth"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/metrics"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"net/http"
	"time"
)

// requestLogger logs one line per request and counts it by status code.
func requestLogger(log *zap.Logger, m *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				code := ww.Status()
				if code == 0 {
					code = http.StatusOK
				}
				m.ObserveHTTP(code)
				log.Info("http request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", code),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("latency", time.Since(start)))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// RequireUser resolves the bearer token and stores the caller in the request context.
func RequireUser(a auth.Authenticator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeError(w, r, log, apperr.Unauthorized("Authentication required"))
				return
			}
			id, err := a.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin must run after RequireUser.
func RequireAdmin(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.FromContext(r.Context())
			if !ok {
				writeError(w, r, log, apperr.Unauthorized("Authentication required"))
				return
			}
			if !id.IsAdmin() {
				writeError(w, r, log, apperr.Forbidden("Admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
