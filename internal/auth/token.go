// Package auth issues the short-lived JWTs that authenticate requests to
// the signing API. Every request carries a freshly issued token.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrNonPositiveExpiry is returned when a token is requested with a
// non-positive lifetime.
var ErrNonPositiveExpiry = errors.New("auth: token expiry must be positive")

// Provider issues tokens for one API credential pair.
type Provider struct {
	// Key is the API key; it becomes the token issuer.
	Key string

	// Secret is the shared HMAC secret.
	Secret string
}

// IssueToken creates an HS256-signed JWT with issuer=Key, issued-at=now and
// expiry=now+lifetime. Each token carries a unique jti so the service can
// reject replays.
func (p Provider) IssueToken(lifetime time.Duration) (string, error) {
	if lifetime <= 0 {
		return "", ErrNonPositiveExpiry
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    p.Key,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(p.Secret))
}
