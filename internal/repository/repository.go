package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

const dialect = "postgres"

// Store is the dashboard's handle on its own database. The gateway's domain
// data lives behind the remote API; only bookkeeping tables are kept here.
type Store struct {
	db *goqu.Database
}

// NewStore accepts a nil db for callers that only build SQL.
func NewStore(db *sql.DB) *Store {
	return &Store{db: goqu.New(dialect, db)}
}

func (s *Store) Goqu() *goqu.Database {
	return s.db
}

// Transact commits when fn returns nil and rolls back when it fails or panics.
func (s *Store) Transact(ctx context.Context, fn func(tx *goqu.TxDatabase) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	return tx.Wrap(func() error { return fn(tx) })
}

// Dialect returns a builder for SQL generation without a connection.
func Dialect() goqu.DialectWrapper {
	return goqu.Dialect(dialect)
}
