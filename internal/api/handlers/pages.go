package handlers

import (
	"net/http"

	"github.com/astralpath/interstellar/internal/api/middleware"
	"github.com/astralpath/interstellar/internal/auth"
	"github.com/astralpath/interstellar/internal/session"
	"github.com/astralpath/interstellar/internal/web"
)

// pageData assembles the common view model for public pages, draining any
// pending flashes from the visitor's session.
func (h *Handler) pageData(r *http.Request) web.PageData {
	data := web.PageData{}
	if sess := h.Sessions.Get(r); sess != nil {
		data.SuccessMsgs = sess.Flashes(session.FlashSuccess)
		data.ErrorMsgs = sess.Flashes(session.FlashError)
		if sess.Authenticated() {
			user := sess.Snapshot()
			data.User = &user
		}
	}
	return data
}

// GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, http.StatusOK, "index", h.pageData(r))
}

// GET /dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())

	token, err := auth.NewCSRFToken(sess.ID, h.Secret)
	if err != nil {
		h.serverError(w, err)
		return
	}

	user := sess.Snapshot()
	h.Render.Render(w, http.StatusOK, "dashboard", web.PageData{
		User:        &user,
		SuccessMsgs: sess.Flashes(session.FlashSuccess),
		ErrorMsgs:   sess.Flashes(session.FlashError),
		CSRFToken:   token,
	})
}
