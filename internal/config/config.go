package config

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/crypto/bcrypt"
)

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	BucketName      string
	Region          string
	PublicBaseURL   string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type Config struct {
	DB_URL         string
	Port           string
	SessionSecret  string
	Environment    string
	BcryptCost     int
	UploadDir      string
	StorageBackend string // "disk" or "s3"
	CorsConfig     cors.Options
	S3             S3Config
	Google         GoogleConfig
}

var Envs = initConfig()

// IsProd reports whether the server runs in production mode. Session and
// CSRF cookies are only marked Secure in production, where TLS terminates
// in front of the server.
func (c Config) IsProd() bool {
	return c.Environment == "production"
}

func initConfig() Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("No", envFile, "file found")
	}

	cfg := Config{
		DB_URL:         getEnv("DB_URL", ""),
		Port:           getEnv("PORT", "3000"),
		SessionSecret:  getEnv("SESSION_SECRET", ""),
		Environment:    getEnv("ENV", "development"),
		BcryptCost:     getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		StorageBackend: getEnv("STORAGE_BACKEND", "disk"),
		CorsConfig:     CorsConfig(),
		S3: S3Config{
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			BucketName:      getEnv("S3_BUCKET_NAME", ""),
			Region:          getEnv("S3_REGION", "auto"),
			PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:3000/auth/google/callback"),
		},
	}

	// The session secret must never be baked into the binary. Production
	// refuses to start without one; development falls back to a throwaway
	// random secret, so sessions simply reset on restart.
	if cfg.SessionSecret == "" && cfg.IsProd() {
		log.Fatal("SESSION_SECRET is required in production")
	}

	return cfg
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid value for %s, using default %d", key, fallback)
	}
	return fallback
}

func CorsConfig() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
}
