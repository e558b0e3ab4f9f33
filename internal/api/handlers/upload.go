package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/astralpath/interstellar/internal/api/middleware"
	"github.com/astralpath/interstellar/internal/repositories"
	"github.com/astralpath/interstellar/internal/session"
	"github.com/google/uuid"
)

const maxUploadSize = 10 << 20 // 10 MB

// POST /upload
// The stored name is a fresh UUID plus the original extension, so two
// uploads landing in the same instant cannot collide. If the record update
// fails after the file was written, the file is removed again; the store
// and the upload area never disagree for longer than this request.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		sess.PushFlash(session.FlashError, "Please select a file to upload")
		redirect(w, r, "/dashboard")
		return
	}

	file, header, err := r.FormFile("profilePic")
	if err != nil {
		sess.PushFlash(session.FlashError, "Please select a file to upload")
		redirect(w, r, "/dashboard")
		return
	}
	defer file.Close()

	name := uuid.NewString() + repositories.SanitizeExt(header.Filename)

	if err := h.Storage.Save(r.Context(), name, file); err != nil {
		h.serverError(w, fmt.Errorf("store upload %s: %w", name, err))
		return
	}

	path := h.Storage.PublicURL(name)

	if err := h.Users.UpdateProfilePic(r.Context(), sess.UserID, path); err != nil {
		if rmErr := h.Storage.Remove(r.Context(), name); rmErr != nil {
			log.Printf("orphan cleanup failed for %s: %v", name, rmErr)
		}
		h.serverError(w, fmt.Errorf("update profile pic: %w", err))
		return
	}

	sess.SetProfilePic(path)
	sess.PushFlash(session.FlashSuccess, "Profile picture updated!")
	redirect(w, r, "/dashboard")
}
