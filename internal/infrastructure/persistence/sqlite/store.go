// Package sqlite implements the engine store on an embedded SQLite database.
// It targets single-node deployments and local development: the pool holds
// one connection, so every unit of work runs alone.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/linguaromana/engagement/internal/application/command"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/pkg/logger"
)

const (
	adapter    = "sqlite"
	driverName = "sqlite3"

	// timestampLayout has a fixed width so stored text sorts chronologically.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store is a SQLite backed command.Store.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	db, err := sqlx.Open(driverName, path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite allows one writer. A single pooled connection also keeps an
	// in-memory database alive for the lifetime of the Store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: failed to ping database: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: failed to apply schema: %w", err)
		}
	}

	log = logger.OrDefault(log).With(logger.Component("sqlite_store"))
	log.Debug("sqlite store ready", slog.String("path", path))

	return &Store{db: db, logger: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Catalog returns the badge catalog stored in the database.
func (s *Store) Catalog() *CatalogStore {
	return &CatalogStore{q: s.db}
}

// Read returns repositories that run outside any transaction.
// Do not call them from inside Do: the single connection is held by the
// transaction and the read would wait forever.
func (s *Store) Read() command.Stores {
	return stores(s.db)
}

// Do runs fn in one transaction. The transaction commits when fn returns nil
// and rolls back otherwise.
func (s *Store) Do(ctx context.Context, userID shared.UserID, fn func(ctx context.Context, st command.Stores) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return shared.StorageError(adapter, "BeginTx", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, stores(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed",
				logger.UserID(userID.String()),
				logger.Err(rbErr),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return shared.StorageError(adapter, "Commit", err)
	}
	return nil
}

func stores(q sqlx.ExtContext) command.Stores {
	return command.Stores{
		Ledger:  &ledgerRepo{q: q},
		Streaks: &streakRepo{q: q},
		Quizzes: &quizRepo{q: q},
		Badges:  &badgeRepo{q: q},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

// isConstraintViolation reports whether err is a primary key or unique
// constraint failure.
func isConstraintViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func storageErr(op string, err error) error {
	return shared.StorageError(adapter, op, err)
}
