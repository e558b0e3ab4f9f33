package middleware

import (
	"net/http"

	"github.com/astralpath/interstellar/internal/auth"
)

// RequireCSRF validates the token submitted with a state-mutating form.
// It must run inside RequireWeb so the session is already in the context.
// The token arrives either as the csrf_token form field or the
// X-CSRF-Token header.
func RequireCSRF(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFrom(r.Context())
			if sess == nil {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			token := r.Header.Get("X-CSRF-Token")
			if token == "" {
				token = r.PostFormValue("csrf_token")
			}
			if err := auth.VerifyCSRFToken(token, sess.ID, secret); err != nil {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
