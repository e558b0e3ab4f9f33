package handlers

import (
	"errors"
	"net/http"

	"github.com/astralpath/interstellar/internal/auth"
	"github.com/astralpath/interstellar/internal/models"
	"github.com/astralpath/interstellar/internal/repositories"
	"github.com/astralpath/interstellar/internal/session"
	"github.com/astralpath/interstellar/internal/web"
)

// GET /signup
func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, http.StatusOK, "signup", h.pageData(r))
}

// POST /signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	username, email, fieldErrs := validateSignup(
		r.PostFormValue("username"),
		r.PostFormValue("email"),
		r.PostFormValue("password"),
	)
	if len(fieldErrs) > 0 {
		h.Render.Render(w, http.StatusUnprocessableEntity, "signup", web.PageData{
			Errors: fieldErrs,
			Form:   map[string]string{"username": username, "email": email},
		})
		return
	}

	hashed, err := auth.HashPassword(r.PostFormValue("password"), h.BcryptCost)
	if err != nil {
		h.serverError(w, err)
		return
	}

	user := models.User{
		Username: username,
		Email:    email,
		Password: hashed,
	}

	switch err := h.Users.Create(r.Context(), &user); {
	case errors.Is(err, repositories.ErrDuplicateUser):
		sess, err := h.Sessions.Ensure(w, r)
		if err != nil {
			h.serverError(w, err)
			return
		}
		sess.PushFlash(session.FlashError, "Username or Email already exists")
		redirect(w, r, "/signup")
		return
	case err != nil:
		h.serverError(w, err)
		return
	}

	sess, err := h.Sessions.Ensure(w, r)
	if err != nil {
		h.serverError(w, err)
		return
	}
	sess.PushFlash(session.FlashSuccess, "Registration successful! You can now login.")
	redirect(w, r, "/login")
}

// GET /login
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, http.StatusOK, "login", h.pageData(r))
}

// POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.Users.FindByUsername(r.Context(), username)
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		h.serverError(w, err)
		return
	}

	// Unknown user and wrong password take the same path: one flash, one
	// redirect, nothing that tells the two cases apart.
	if err != nil || !auth.CheckPassword(password, user.Password) {
		sess, err := h.Sessions.Ensure(w, r)
		if err != nil {
			h.serverError(w, err)
			return
		}
		sess.PushFlash(session.FlashError, "Invalid username or password")
		redirect(w, r, "/login")
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

// GET /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Logout(w, r)
	redirect(w, r, "/")
}
