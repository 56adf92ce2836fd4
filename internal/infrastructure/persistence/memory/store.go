// Package memory provides an in-process store for tests and single-process
// deployments. Units of work hold a per-user mutex and keep an undo journal
// that is replayed when the work fails.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/linguaromana/engagement/internal/application/command"
	"github.com/linguaromana/engagement/internal/domain/activity"
	"github.com/linguaromana/engagement/internal/domain/quiz"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/internal/domain/streak"
)

type ledgerKey struct {
	user shared.UserID
	date string
}

type quizKey struct {
	user shared.UserID
	item shared.ItemID
}

type earnedBadge struct {
	badgeID  shared.BadgeID
	earnedAt time.Time
}

// Store keeps every table in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	ledger  map[ledgerKey]activity.Record
	streaks map[shared.UserID]streak.State
	quizzes map[quizKey]quiz.Result
	earned  map[shared.UserID][]earnedBadge
	catalog *catalog

	users *keyedMutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		ledger:  make(map[ledgerKey]activity.Record),
		streaks: make(map[shared.UserID]streak.State),
		quizzes: make(map[quizKey]quiz.Result),
		earned:  make(map[shared.UserID][]earnedBadge),
		catalog: newCatalog(),
		users:   newKeyedMutex(),
	}
}

// Catalog returns the badge catalog held by the store.
func (s *Store) Catalog() *CatalogStore {
	return &CatalogStore{store: s}
}

// Read returns repositories that are not bound to a unit of work.
func (s *Store) Read() command.Stores {
	return s.stores(nil)
}

// Do runs fn while holding the user's mutex. When fn fails every change it
// made is rolled back from the journal.
func (s *Store) Do(ctx context.Context, userID shared.UserID, fn func(ctx context.Context, st command.Stores) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := s.users.Lock(userID.String())
	defer unlock()

	j := &journal{}
	defer func() {
		if p := recover(); p != nil {
			s.rollback(j)
			panic(p)
		}
		if err != nil {
			s.rollback(j)
		}
	}()

	return fn(ctx, s.stores(j))
}

func (s *Store) stores(j *journal) command.Stores {
	return command.Stores{
		Ledger:  &ledgerRepo{s: s, j: j},
		Streaks: &streakRepo{s: s, j: j},
		Quizzes: &quizRepo{s: s, j: j},
		Badges:  &badgeRepo{s: s, j: j},
	}
}

func (s *Store) rollback(j *journal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j.undo()
}

// journal records how to revert each mutation. Undo functions run with
// s.mu held.
type journal struct {
	steps []func()
}

func (j *journal) record(step func()) {
	if j == nil {
		return
	}
	j.steps = append(j.steps, step)
}

func (j *journal) undo() {
	for i := len(j.steps) - 1; i >= 0; i-- {
		j.steps[i]()
	}
	j.steps = nil
}

func storageErr(op string, err error) error {
	return shared.StorageError("memory", op, err)
}

var errMissingRow = errors.New("row does not exist")
