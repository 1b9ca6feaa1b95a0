// Package session persists authenticated sessions with the identity service.
//
// A session holds the access and refresh tokens returned by
// com.atproto.server.createSession. Persisting them lets the CLI and the
// server resume without logging in on every start, which the identity
// service rate-limits aggressively.
//
// Backends:
//   - [MemoryStore]: process-local, used by tests and as the server fallback
//   - [FileStore]: JSON files under ~/.config/skyavatar/sessions/
//
// Sessions are keyed by [Key], derived from the service URL and the account
// identifier, so switching accounts never resumes the wrong session.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Session is an authenticated session with the identity service.
type Session struct {
	ID         string    `json:"id"`
	Service    string    `json:"service"`
	DID        string    `json:"did"`
	Handle     string    `json:"handle"`
	AccessJwt  string    `json:"access_jwt"`
	RefreshJwt string    `json:"refresh_jwt"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsExpired reports whether the refresh token is past its lifetime.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session under its ID.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error
}

// DefaultTTL approximates the refresh token lifetime. Resumed sessions past
// it are discarded and a fresh login is made.
const DefaultTTL = 60 * 24 * time.Hour

// Key derives the session ID for an account on a service.
func Key(service, identifier string) string {
	sum := sha256.Sum256([]byte(strings.TrimRight(service, "/") + "\x00" + strings.ToLower(identifier)))
	return hex.EncodeToString(sum[:8])
}
