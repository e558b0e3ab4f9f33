// Package handlers implements the web and API route handlers. Handlers hold
// their collaborators explicitly so tests can substitute fakes for the
// credential store and the object storage.
package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/astralpath/interstellar/internal/models"
	"github.com/astralpath/interstellar/internal/repositories"
	"github.com/astralpath/interstellar/internal/session"
	"github.com/astralpath/interstellar/internal/web"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// UserStore is the slice of the credential store the handlers need.
// *repositories.UserRepository satisfies it.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfilePic(ctx context.Context, userID uuid.UUID, path string) error
}

type Handler struct {
	Users      UserStore
	Sessions   *session.Manager
	Storage    repositories.ObjectStorage
	Render     *web.Renderer
	Secret     []byte // signing secret for CSRF and OAuth state tokens
	BcryptCost int
	UploadDir  string // disk backend only; empty disables /uploads serving

	Google         *oauth2.Config
	GoogleUserInfo string // overridable in tests
}

// serverError logs the detail and answers with a generic failure. Nothing
// about the underlying error reaches the client.
func (h *Handler) serverError(w http.ResponseWriter, err error) {
	log.Printf("server error: %v", err)
	http.Error(w, "Server Error", http.StatusInternalServerError)
}

// redirect issues the standard post-form redirect.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}
