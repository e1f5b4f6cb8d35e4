package api

import (
	"context"
	"net/http"

	"github.com/bpay/dashboard-service/internal/app"
)

type contextKey string

const sessionTokenContextKey contextKey = "sessionToken"

// RequireSession guards wallet routes: without an active credential every
// request is answered 401 and the client returns to the auth screen.
func RequireSession(sessions *app.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := sessions.Token()
			if !ok {
				http.Error(w, "Authorization required", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), sessionTokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionTokenFromContext returns the credential injected by RequireSession.
func SessionTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(sessionTokenContextKey).(string)
	return token
}
