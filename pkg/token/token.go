// Package token issues and verifies the stateless bearer tokens used for
// sessions. Verification is pure computation; cross-checking the token
// against the credential store is the route guard's job.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Verification failures, ordered from least to most specific.
var (
	ErrMalformed    = errors.New("token is malformed")
	ErrBadSignature = errors.New("token signature is invalid")
	ErrExpired      = errors.New("token has expired")
)

// Claims decoded from a verified token.
type Claims struct {
	UserID   string
	IssuedAt time.Time
}

// Manager signs and verifies HS256 session tokens with a server-held
// symmetric secret.
type Manager struct {
	secret   []byte
	validity time.Duration
}

// New constructs a Manager. An empty secret is a deployment error and is
// rejected at startup rather than per request.
func New(secret string, validity time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is not configured")
	}
	if validity <= 0 {
		validity = 72 * time.Hour
	}
	return &Manager{secret: []byte(secret), validity: validity}, nil
}

// Issue creates a signed bearer token for the given user id.
func (m *Manager) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.validity)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Validity returns the configured token lifetime.
func (m *Manager) Validity() time.Duration {
	return m.validity
}

// Verify parses and checks the token, returning the subject and issue time.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		default:
			return nil, ErrMalformed
		}
	}
	if !parsed.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrMalformed
	}
	return &Claims{UserID: claims.Subject, IssuedAt: claims.IssuedAt.Time}, nil
}
