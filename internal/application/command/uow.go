// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linguaromana/engagement/internal/domain/activity"
	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/quiz"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/internal/domain/streak"
	"github.com/linguaromana/engagement/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// Every write runs inside Do: all side effects commit or none do, and calls
// for the same user are serialized. Calls for different users never wait on
// each other.
// ══════════════════════════════════════════════════════════════════════════════

// Stores is the set of repositories bound to one unit of work (or, for
// pure reads, to the store directly).
type Stores struct {
	Ledger  activity.Repository
	Streaks streak.Repository
	Quizzes quiz.Repository
	Badges  badge.Repository
}

// UnitOfWork runs fn atomically for one user.
type UnitOfWork interface {
	Do(ctx context.Context, userID shared.UserID, fn func(ctx context.Context, s Stores) error) error
}

// Store is a persistence backend: a unit of work plus non-transactional
// repositories for pure reads.
type Store interface {
	UnitOfWork

	// Read returns repositories that are not bound to a transaction.
	Read() Stores
}

// UserLocker serializes work on one user across processes.
type UserLocker interface {
	// Lock blocks until the lock is held or ctx ends. The returned function
	// releases the lock.
	Lock(ctx context.Context, userID shared.UserID) (unlock func(context.Context) error, err error)
}

// lockedStore wraps a Store with a distributed per-user lock.
type lockedStore struct {
	Store
	locker UserLocker
	logger *slog.Logger
}

// WithUserLock returns a Store whose units of work run while holding the
// user's lock from locker. Reads are not locked.
func WithUserLock(store Store, locker UserLocker, log *slog.Logger) Store {
	if locker == nil {
		return store
	}
	return &lockedStore{Store: store, locker: locker, logger: logger.OrDefault(log)}
}

// Do acquires the user lock, runs the inner unit of work and releases the lock.
func (s *lockedStore) Do(ctx context.Context, userID shared.UserID, fn func(ctx context.Context, s Stores) error) error {
	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return fmt.Errorf("acquire user lock: %w", err)
	}
	defer func() {
		// Release with a fresh context so that a cancelled request still unlocks.
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release user lock",
				logger.UserID(userID.String()),
				logger.Err(err),
			)
		}
	}()

	return s.Store.Do(ctx, userID, fn)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// outbox collects events produced inside a unit of work. They are published
// only after the unit of work has committed.
type outbox struct {
	correlationID string
	events        []shared.Event
}

func newOutbox(correlationID string) *outbox {
	return &outbox{correlationID: correlationID}
}

func (o *outbox) add(events ...shared.Event) {
	o.events = append(o.events, events...)
}

// publish sends the collected events. Failures are logged and never returned:
// the state change they describe is already committed.
func (o *outbox) publish(publisher shared.EventPublisher, log *slog.Logger) {
	if publisher == nil {
		return
	}
	for _, event := range o.events {
		if err := publisher.Publish(event); err != nil {
			log.Warn("failed to publish event",
				logger.EventType(string(event.EventType())),
				logger.UserID(event.AggregateID()),
				logger.Err(err),
			)
		}
	}
}
