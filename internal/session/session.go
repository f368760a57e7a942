// Package session issues and verifies the short-lived bearer tokens
// that gate the license lookup endpoints. Tokens are self-contained
// HS256 JWTs, so no server-side session table exists: the token is the
// only record, and it stops verifying once it expires or the signing
// secret rotates.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Duration is how long an issued session stays valid. Fixed, not
// configurable.
const Duration = time.Hour

var errInvalidSession = errors.New("invalid session")

// Session is the metadata embedded in a token payload.
type Session struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claims struct {
	// Millisecond timestamps mirrored into private claims so clients
	// can display the window without parsing registered claims.
	IssuedAtMillis  int64 `json:"issuedAt"`
	ExpiresAtMillis int64 `json:"expiresAt"`
	jwt.RegisteredClaims
}

// Service signs and verifies session tokens with a shared HMAC secret.
type Service struct {
	secret []byte
	now    func() time.Time
}

// NewService creates a session token service. The secret is required:
// an unconfigured secret must reject every request rather than fall
// back to a default.
func NewService(secret []byte) (*Service, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	return &Service{secret: secret, now: time.Now}, nil
}

// WithClock overrides the time source. Used by tests to pin expiry
// boundaries.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create issues a new session token. One request produces one
// session; there is no reuse and no revocation list.
func (s *Service) Create() (Session, string, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(Duration)

	c := claims{
		IssuedAtMillis:  issuedAt.UnixMilli(),
		ExpiresAtMillis: expiresAt.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return Session{}, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return Session{IssuedAt: issuedAt, ExpiresAt: expiresAt}, token, nil
}

// Validate reports whether a token carries a valid signature and has
// not expired. Malformed tokens, rotated secrets and expired sessions
// all collapse to false; callers never learn which.
func (s *Service) Validate(token string) bool {
	_, err := s.verify(token)
	return err == nil
}

// Get returns the session metadata embedded in a valid token, or nil
// when the token fails verification for any reason.
func (s *Service) Get(token string) *Session {
	c, err := s.verify(token)
	if err != nil {
		return nil
	}
	return &Session{
		IssuedAt:  time.UnixMilli(c.IssuedAtMillis),
		ExpiresAt: time.UnixMilli(c.ExpiresAtMillis),
	}
}

func (s *Service) verify(token string) (*claims, error) {
	if token == "" {
		return nil, errInvalidSession
	}

	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, errInvalidSession
	}

	// The exp claim already gates expiry; re-check the mirrored
	// payload timestamp so the value returned to clients can never
	// disagree with the verdict.
	if c.ExpiresAtMillis < s.now().UnixMilli() {
		return nil, errInvalidSession
	}

	return c, nil
}
