// Package postgres implements the repository.Store contract on top of
// database/sql using the pgx stdlib driver, following the teacher's
// connection-pool-backed repository shape (internal/infra/db).
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"catchup-feed/internal/resilience/circuitbreaker"
)

// Store implements repository.Store backed by a *sql.DB connection pool
// opened against the pgx stdlib driver, wrapped in a circuit breaker. Every
// repository method lives on this single type, split by concern across
// sibling files in this package, mirroring the teacher's one-repo-per-concept
// layout while avoiding N separate repo structs that would each need their
// own db handle plumbed through. Sibling files call s.db.QueryContext/
// ExecContext/QueryRowContext exactly as they would against a raw *sql.DB —
// circuitbreaker.DBCircuitBreaker exposes the same method set, so every
// outbound query trips the breaker after repeated failures the same way
// the teacher's own RSS/readability/embedding clients do.
type Store struct {
	db *circuitbreaker.DBCircuitBreaker
}

// New wraps an already-opened connection pool in a circuit breaker. Callers
// obtain db from internal/infra/db.Open.
func New(db *sql.DB) *Store {
	return &Store{db: circuitbreaker.NewDBCircuitBreaker(db)}
}

// Close releases the underlying connection pool.
func (s *Store) Close(ctx context.Context) error {
	_ = ctx
	if err := s.db.DB().Close(); err != nil {
		return fmt.Errorf("postgres: close: %w", err)
	}
	return nil
}
