// Package auth is the HTTP edge guard: it resolves session tokens to
// user ids before any handler runs, answers CORS preflights, and rate
// limits by token or client IP. Handlers downstream only ever see a
// resolved caller id in the request context.
package auth

import (
	"context"
	"net/http"
	"strings"

	"teamline/pkg/logger"
	"teamline/pkg/users"
	"teamline/pkg/utils"
)

type ctxKey int

const callerKey ctxKey = 0

// TokenHeader carries the session token on every authenticated request.
const TokenHeader = "Token"

// Caller returns the resolved user id stored by Middleware.
func Caller(r *http.Request) int64 {
	uid, _ := r.Context().Value(callerKey).(int64)
	return uid
}

// WithCaller stamps a caller id onto a request; tests use it to bypass
// the middleware.
func WithCaller(r *http.Request, uid int64) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), callerKey, uid))
}

// Middleware resolves the token header through the identity service. An
// absent or unknown token is a 403. Only /v1 routes are guarded; the
// operational endpoints (probes, metrics, docs) and the /v1 routes
// listed in open run without a token.
func Middleware(svc *users.Service, open map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/v1/") || open[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			token := r.Header.Get(TokenHeader)
			if token == "" {
				utils.JSONError(w, http.StatusForbidden, "missing token")
				return
			}
			uid, err := svc.Resolve(token)
			if err != nil {
				logger.Warn("request_bad_token", "path", r.URL.Path)
				utils.JSONError(w, http.StatusForbidden, "invalid token")
				return
			}
			next.ServeHTTP(w, WithCaller(r, uid))
		})
	}
}
