// Package session stores hover sessions for the HTTP API.
//
// A browser tab showing the map opens a session and then streams pointer
// events to it. Between requests the session keeps the hover state
// ([interact.State]): the active target and the last pointer position. Each
// request restores an [interact.Manager] from that state, applies its event
// and writes the new state back.
//
// Two backends are provided:
//   - memory: a map guarded by a mutex, for a single server process
//   - file: one JSON file per session, surviving restarts
//
// Sessions expire after their TTL. Every Set extends the expiry, so an
// active session lives as long as events keep arriving.
//
// # Usage
//
//	store := session.NewMemoryStore()
//	sess := session.New(session.DefaultTTL)
//	store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, id)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // Session not found or expired
//	}
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/choropleth/pkg/interact"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 30 * time.Minute

// Session is one client's hover state.
type Session struct {
	ID        string         `json:"id"`
	State     interact.State `json:"state"`
	TTL       time.Duration  `json:"ttl"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// New creates an idle session with a random ID.
func New(ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		TTL:       ttl,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch extends the expiry by the session's TTL from now.
func (s *Session) Touch() {
	s.ExpiresAt = time.Now().Add(s.TTL)
}

// ValidID reports whether id has the form produced by New.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session, extending its expiry.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions and reports how many were removed.
	Cleanup(ctx context.Context) (int, error)
}
