package store

import (
	"context"
	"time"

	"github.com/hallatan/mockvox/internal/models"
)

// DefaultTTL bounds how long an untouched session survives. Every write
// refreshes the window, so an active interview never expires mid-run.
const DefaultTTL = time.Hour

// SessionStore is the single source of truth for live interview sessions.
// The turn policy engine depends only on this contract, never on a concrete
// backend, so the deployment mode (in-process vs shared cache) is swappable.
//
// Get-then-mutate-then-Put is not atomic; callers that need serialized
// turns on one session must arrange that themselves (the interview service
// holds a per-session mutex in single-process mode).
type SessionStore interface {
	// Create stores a brand-new session under its id.
	Create(ctx context.Context, s *models.Session) error
	// Get returns the session or utils.ErrNotFound when the id has no live
	// state (expired, deleted, or never created).
	Get(ctx context.Context, id string) (*models.Session, error)
	// Put overwrites the stored session wholesale and refreshes its TTL.
	Put(ctx context.Context, s *models.Session) error
	// Delete removes the session. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
	// List returns the ids of all live sessions.
	List(ctx context.Context) ([]string, error)
}
