// Package services wires external identity providers.
package services

import (
	"github.com/astralpath/interstellar/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUserInfoURL is where the callback fetches the signed-in account.
const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// NewGoogleOAuthConfig builds the Google sign-in config. Returns nil when
// the client id is not configured, which disables the Google routes.
func NewGoogleOAuthConfig(cfg config.GoogleConfig) *oauth2.Config {
	if cfg.ClientID == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}
