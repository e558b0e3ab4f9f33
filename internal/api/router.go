package api

import (
	"fmt"
	"log"
	"net/http"

	_ "github.com/astralpath/interstellar/docs"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/astralpath/interstellar/internal/api/handlers"
	"github.com/astralpath/interstellar/internal/api/middleware"
	"github.com/astralpath/interstellar/internal/config"
	"github.com/rs/cors"
)

func SetupRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()
	c := cors.New(config.Envs.CorsConfig)

	requireWeb := middleware.RequireWeb(h.Sessions)
	requireAPI := middleware.RequireAPI(h.Sessions)
	requireCSRF := middleware.RequireCSRF(h.Secret)

	// ---------- PUBLIC ROUTES ----------
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mux.Handle("/docs/", httpSwagger.WrapHandler)

	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /signup", h.SignupPage)
	mux.HandleFunc("POST /signup", h.Signup)
	mux.HandleFunc("GET /login", h.LoginPage)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /logout", h.Logout)

	mux.HandleFunc("GET /auth/google/login", h.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", h.GoogleCallback)

	mux.HandleFunc("GET /api/public-data", h.PublicData)

	// Uploaded profile pictures, disk backend only. The S3 backend serves
	// them from the bucket's public URL instead.
	if h.UploadDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/",
			http.FileServer(http.Dir(h.UploadDir)),
		))
	}

	// ---------- PROTECTED ROUTES ----------
	mux.Handle("GET /dashboard", requireWeb(http.HandlerFunc(h.Dashboard)))
	mux.Handle("POST /upload", requireWeb(requireCSRF(http.HandlerFunc(h.Upload))))
	mux.Handle("GET /api/user/profile", requireAPI(http.HandlerFunc(h.Profile)))

	log.Println("Router initialized")
	handler := c.Handler(mux)
	handler = middleware.Logger(handler)
	return handler
}
