/*
Package store implements the persistence layer over PostgreSQL.

Each query method maps driver errors to the sentinel errors in the market
package so callers never see pgx types. State transitions with idempotency
requirements (purchase request resolution) are implemented as conditional
updates so the database holds the single authoritative copy of each state.
*/
package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store executes marketplace queries against a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps the given pool in a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
