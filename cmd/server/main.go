package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/astralpath/interstellar/internal/api"
	"github.com/astralpath/interstellar/internal/api/handlers"
	"github.com/astralpath/interstellar/internal/api/services"
	"github.com/astralpath/interstellar/internal/config"
	"github.com/astralpath/interstellar/internal/repositories"
	"github.com/astralpath/interstellar/internal/session"
	"github.com/astralpath/interstellar/internal/utils"
	"github.com/astralpath/interstellar/internal/web"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Envs

	secret := cfg.SessionSecret
	if secret == "" {
		// Development fallback; config already refused an empty secret
		// in production.
		s, err := utils.GenerateSecureToken(32)
		if err != nil {
			log.Fatal("Failed to generate development secret:", err)
		}
		secret = s
	}

	db := repositories.ConnectDatabase(cfg.DB_URL)
	users := repositories.NewUserRepository(db)
	sessions := session.NewManager(session.DefaultTTL, cfg.IsProd())

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatal("Failed to parse templates:", err)
	}

	var storage repositories.ObjectStorage
	uploadDir := ""
	switch cfg.StorageBackend {
	case "s3":
		s3Storage, err := repositories.NewS3Storage(cfg.S3)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage:", err)
		}
		storage = s3Storage
	default:
		diskStorage, err := repositories.NewDiskStorage(cfg.UploadDir)
		if err != nil {
			log.Fatal("Failed to initialize upload dir:", err)
		}
		storage = diskStorage
		uploadDir = cfg.UploadDir
	}

	h := &handlers.Handler{
		Users:      users,
		Sessions:   sessions,
		Storage:    storage,
		Render:     renderer,
		Secret:     []byte(secret),
		BcryptCost: cfg.BcryptCost,
		UploadDir:  uploadDir,
		Google:     services.NewGoogleOAuthConfig(cfg.Google),
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: api.SetupRouter(h),
		// Timeouts prevent resource exhaustion from slow clients
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting Interstellar server on port: %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sessions.Janitor(ctx.Done(), time.Hour)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
	log.Println("Server stopped")
}
