package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CSRFTokenTTL bounds how long a rendered form stays submittable.
const CSRFTokenTTL = 2 * time.Hour

var ErrInvalidCSRFToken = errors.New("invalid csrf token")

type csrfClaims struct {
	jwt.RegisteredClaims
}

// NewCSRFToken mints an HS256-signed token bound to the given session id.
// The token is embedded in rendered forms; a stolen token is useless
// against any other session.
func NewCSRFToken(sessionID string, secret []byte) (string, error) {
	claims := csrfClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(CSRFTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyCSRFToken checks the signature, expiry, and session binding of a
// submitted token.
func VerifyCSRFToken(tokenString, sessionID string, secret []byte) error {
	claims := &csrfClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidCSRFToken
	}
	if claims.Subject == "" || claims.Subject != sessionID {
		return ErrInvalidCSRFToken
	}
	return nil
}
