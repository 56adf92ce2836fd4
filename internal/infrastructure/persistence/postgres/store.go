package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/linguaromana/engagement/internal/application/command"
	"github.com/linguaromana/engagement/internal/domain/shared"
)

const adapter = "postgres"

var errMissingRow = errors.New("row does not exist")

// Store is a PostgreSQL backed command.Store.
type Store struct {
	conn *Connection
}

// NewStore creates a Store over an open connection. Run the Migrator first.
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

// Catalog returns the badge catalog stored in the database.
func (s *Store) Catalog() *CatalogStore {
	return NewCatalogStore(s.conn.Pool())
}

// Read returns repositories that run on the pool outside any transaction.
func (s *Store) Read() command.Stores {
	return stores(s.conn.Pool())
}

// Do runs fn in one transaction holding the user's advisory lock. The lock
// is released when the transaction ends.
func (s *Store) Do(ctx context.Context, userID shared.UserID, fn func(ctx context.Context, st command.Stores) error) error {
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, userID.String()); err != nil {
			return shared.StorageError(adapter, "AdvisoryLock", err)
		}
		return fn(ctx, stores(tx))
	})
}

func stores(q Querier) command.Stores {
	return command.Stores{
		Ledger:  NewActivityRepository(q),
		Streaks: NewStreakRepository(q),
		Quizzes: NewQuizRepository(q),
		Badges:  NewBadgeRepository(q),
	}
}

func storageErr(op string, err error) error {
	return shared.StorageError(adapter, op, err)
}
