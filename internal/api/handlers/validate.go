package handlers

import (
	"html"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/astralpath/interstellar/internal/auth"
	"github.com/astralpath/interstellar/internal/web"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	maxEmailLength    = 255
	// bcrypt ignores input beyond 72 bytes, so longer passwords are
	// rejected rather than silently truncated.
	maxPasswordBytes = 72
)

// validateSignup checks and normalizes the signup form. It returns the
// normalized username and email plus the field errors in form order
// (username, email, password).
func validateSignup(username, email, password string) (string, string, []web.FieldError) {
	var errs []web.FieldError

	username = html.EscapeString(strings.TrimSpace(username))
	switch {
	case utf8.RuneCountInString(username) < minUsernameLength:
		errs = append(errs, web.FieldError{Field: "username", Message: "Username must be at least 3 characters"})
	case utf8.RuneCountInString(username) > maxUsernameLength:
		errs = append(errs, web.FieldError{Field: "username", Message: "Username must be at most 50 characters"})
	}

	email = strings.TrimSpace(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email || len(email) > maxEmailLength {
		errs = append(errs, web.FieldError{Field: "email", Message: "Enter a valid email address"})
	} else {
		email = strings.ToLower(addr.Address)
	}

	switch {
	case utf8.RuneCountInString(password) < auth.MinPasswordLength:
		errs = append(errs, web.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	case len(password) > maxPasswordBytes:
		errs = append(errs, web.FieldError{Field: "password", Message: "Password is too long"})
	}

	return username, email, errs
}
