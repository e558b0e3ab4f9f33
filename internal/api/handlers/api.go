package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/astralpath/interstellar/internal/api/middleware"
	"github.com/google/uuid"
)

// ProfileResponse is the shape of GET /api/user/profile.
type ProfileResponse struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	ProfilePic *string   `json:"profile_pic"`
}

// GET /api/user/profile
// Profile godoc
// @Summary Current user's profile
// @Description Returns the authenticated user's profile from the session snapshot.
// @Tags User
// @Produce json
// @Success 200 {object} handlers.ProfileResponse
// @Failure 401 {object} utils.Payload
// @Router /api/user/profile [get]
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())
	user := sess.Snapshot()

	writeJSON(w, http.StatusOK, ProfileResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		ProfilePic: user.ProfilePic,
	})
}

// PublicDataResponse is the shape of GET /api/public-data.
type PublicDataResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// GET /api/public-data
// PublicData godoc
// @Summary Public liveness data
// @Tags Public
// @Produce json
// @Success 200 {object} handlers.PublicDataResponse
// @Router /api/public-data [get]
func (h *Handler) PublicData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PublicDataResponse{
		Message:   "API is operational",
		Timestamp: time.Now(),
		Status:    "success",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
