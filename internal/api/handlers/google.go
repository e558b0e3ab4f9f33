package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/astralpath/interstellar/internal/api/services"
	"github.com/astralpath/interstellar/internal/auth"
	"github.com/astralpath/interstellar/internal/models"
	"github.com/astralpath/interstellar/internal/repositories"
	"github.com/astralpath/interstellar/internal/session"
	"github.com/google/uuid"
)

// GET /auth/google/login?redirect=login|register
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.Google == nil {
		sess, err := h.Sessions.Ensure(w, r)
		if err != nil {
			h.serverError(w, err)
			return
		}
		sess.PushFlash(session.FlashError, "Google sign-in is not configured")
		redirect(w, r, "/login")
		return
	}

	flow := r.URL.Query().Get("redirect")
	if flow != "register" {
		flow = "login"
	}

	state, err := auth.NewStateToken(flow, h.Secret)
	if err != nil {
		h.serverError(w, err)
		return
	}

	http.Redirect(w, r, h.Google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GET /auth/google/callback
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.Google == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	flow, err := auth.VerifyStateToken(r.FormValue("state"), h.Secret)
	if err != nil {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	token, err := h.Google.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		h.serverError(w, fmt.Errorf("code exchange: %w", err))
		return
	}

	infoURL := h.GoogleUserInfo
	if infoURL == "" {
		infoURL = services.GoogleUserInfoURL
	}

	client := h.Google.Client(r.Context(), token)
	resp, err := client.Get(infoURL)
	if err != nil {
		h.serverError(w, fmt.Errorf("fetch userinfo: %w", err))
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.serverError(w, err)
		return
	}

	var googleUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(data, &googleUser); err != nil || googleUser.Email == "" {
		h.serverError(w, fmt.Errorf("parse userinfo: %v", err))
		return
	}

	user, err := h.Users.FindByEmail(r.Context(), googleUser.Email)
	switch {
	case err == nil:
		if flow == "register" {
			sess, err := h.Sessions.Ensure(w, r)
			if err != nil {
				h.serverError(w, err)
				return
			}
			sess.PushFlash(session.FlashError, "You already have an account, please log in")
			redirect(w, r, "/login")
			return
		}

	case errors.Is(err, repositories.ErrUserNotFound):
		if flow == "login" {
			sess, err := h.Sessions.Ensure(w, r)
			if err != nil {
				h.serverError(w, err)
				return
			}
			sess.PushFlash(session.FlashError, "No account for that Google email, please sign up")
			redirect(w, r, "/signup")
			return
		}
		user, err = h.createGoogleUser(r, googleUser.Name, googleUser.Email)
		if err != nil {
			h.serverError(w, err)
			return
		}

	default:
		h.serverError(w, err)
		return
	}

	sess, err := h.Sessions.Login(w, r, *user)
	if err != nil {
		h.serverError(w, err)
		return
	}
	sess.PushFlash(session.FlashSuccess, "Welcome back!")
	redirect(w, r, "/dashboard")
}

// createGoogleUser registers a store record for a first-time Google sign-up.
// The empty password hash can never verify, so the account stays
// Google-only until the user sets a password through some future flow.
func (h *Handler) createGoogleUser(r *http.Request, name, email string) (*models.User, error) {
	username := html.EscapeString(strings.TrimSpace(name))
	if utf8.RuneCountInString(username) < minUsernameLength {
		username = "user"
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		username = string([]rune(username)[:maxUsernameLength])
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: "",
	}
	err := h.Users.Create(r.Context(), user)
	if errors.Is(err, repositories.ErrDuplicateUser) {
		// Username collision with an existing account; retry once with a
		// random suffix.
		user.Username = fmt.Sprintf("%s-%s", username, uuid.NewString()[:8])
		err = h.Users.Create(r.Context(), user)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
