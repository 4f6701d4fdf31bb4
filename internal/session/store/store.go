// Package store persists journey sessions.
//
// Error contract, shared by every backend:
//   - sentinel.ErrNotFound when no session matches
//   - sentinel.ErrConflict when Create reuses an id, or an optimistic
//     transaction kept losing its race
//   - validate callback errors from Execute are returned unchanged and
//     nothing is written
//   - anything else is an infrastructure failure wrapped with context
package store

import (
	"context"

	"f2f-cri/internal/session/models"
)

// ValidateFunc inspects the current session and rejects the mutation.
type ValidateFunc func(*models.Session) error

// MutateFunc changes the session in place. It runs only after validate passed.
type MutateFunc func(*models.Session)

// Store is implemented by the memory, Redis and Postgres backends.
type Store interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	FindByAuthorizationCode(ctx context.Context, code string) (*models.Session, error)
	FindByVendorSessionID(ctx context.Context, vendorSessionID string) (*models.Session, error)
	// Execute reads the session, validates and mutates it, and writes it back
	// without any other writer interleaving.
	Execute(ctx context.Context, id string, validate ValidateFunc, mutate MutateFunc) (*models.Session, error)
	// ListByStates returns sessions in any of states created at or before
	// createdBefore that have not been sent an expiry notice.
	ListByStates(ctx context.Context, states []models.State, createdBefore int64) ([]*models.Session, error)
}

var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
