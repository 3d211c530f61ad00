package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/afyalink/health-registry/internal/core/ports"
)

// querier is the subset of *sql.DB and *sql.Tx the repositories need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ ports.Store = (*Store)(nil)

// Store implements ports.Store on PostgreSQL. A Store returned to a WithTx
// callback is bound to that transaction.
type Store struct {
	db *sql.DB
	q  querier
	tx *sql.Tx
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Programs() ports.ProgramRepository       { return &programRepo{q: s.q} }
func (s *Store) Clients() ports.ClientRepository         { return &clientRepo{q: s.q} }
func (s *Store) Enrollments() ports.EnrollmentRepository { return &enrollmentRepo{q: s.q} }

// WithTx runs fn inside a transaction. Nested calls reuse the outer
// transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, &Store{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
