package middleware

import (
	"context"
	"net/http"

	"github.com/astralpath/interstellar/internal/session"
	"github.com/astralpath/interstellar/internal/utils"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionFrom returns the authenticated session placed in the context by
// RequireWeb or RequireAPI, or nil outside a guarded route.
func SessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

// RequireWeb gates browser-facing routes. An anonymous or expired client is
// bounced to the login page.
func RequireWeb(m *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := m.Get(r)
			if sess == nil || !sess.Authenticated() {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAPI gates JSON routes with a structured 401 instead of a redirect.
func RequireAPI(m *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			sess := m.Get(r)
			if sess == nil || !sess.Authenticated() {
				utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
					Success: false,
					Message: "Unauthorized",
				})
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
