// Package store is the relational storage collaborator: point lookups,
// inserts with generated ids, update-returning and filtered scans over the
// clinic tables. Every method runs on a Queries value so that the same code
// serves both plain connections and transactions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Queries executes statements against either the pool or a transaction.
type Queries struct {
	q   sqlx.ExtContext
	now func() time.Time
}

// Store owns the database handle.
type Store struct {
	*Queries
	db *sqlx.DB
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the clock used for created_at/updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.Queries.now = now }
}

// New wraps db.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{Queries: &Queries{q: db, now: time.Now}, db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// InTx runs fn inside a transaction, committing when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Queries{q: tx, now: s.Queries.now}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Now returns the store clock truncated to whole seconds in UTC.
func (q *Queries) Now() time.Time {
	return q.now().UTC().Truncate(time.Second)
}

// Page bounds a listing.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func (q *Queries) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q.q, dest, q.q.Rebind(query), args...)
}

func (q *Queries) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q.q, dest, q.q.Rebind(query), args...)
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.q.ExecContext(ctx, q.q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := q.q.QueryRowxContext(ctx, q.q.Rebind(query+" RETURNING id"), args...).Scan(&id)
	return id, err
}

// getOne fetches a single row, mapping "no rows" to a nil result.
func getOne[T any](ctx context.Context, q *Queries, query string, args ...any) (*T, error) {
	var v T
	err := q.get(ctx, &v, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// isUniqueViolation recognises a UNIQUE constraint failure from either driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func likePattern(query string) string {
	return "%" + query + "%"
}
