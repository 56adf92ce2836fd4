// Package storetest is a conformance suite run against every store adapter.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaromana/engagement/internal/application/command"
	"github.com/linguaromana/engagement/internal/domain/activity"
	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/quiz"
	"github.com/linguaromana/engagement/internal/domain/shared"
)

// Factory returns a fresh, empty store and its badge catalog.
type Factory func(t *testing.T) (command.Store, badge.CatalogStore)

var (
	day       = shared.NewDate(2026, time.October, 17)
	timestamp = time.Date(2026, time.October, 17, 10, 30, 0, 0, time.UTC)
	errAbort  = errors.New("abort")
)

// Run executes the whole suite.
func Run(t *testing.T, newStore Factory) {
	t.Run("LedgerUpsert", func(t *testing.T) { testLedgerUpsert(t, newStore) })
	t.Run("LedgerListRecent", func(t *testing.T) { testLedgerListRecent(t, newStore) })
	t.Run("StreakState", func(t *testing.T) { testStreakState(t, newStore) })
	t.Run("QuizResults", func(t *testing.T) { testQuizResults(t, newStore) })
	t.Run("BadgeCatalog", func(t *testing.T) { testBadgeCatalog(t, newStore) })
	t.Run("BadgeGrants", func(t *testing.T) { testBadgeGrants(t, newStore) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollback(t, newStore) })
	t.Run("SameUserSerialized", func(t *testing.T) { testSameUserSerialized(t, newStore) })
}

func do(t *testing.T, store command.Store, user shared.UserID, fn func(ctx context.Context, s command.Stores) error) {
	t.Helper()
	require.NoError(t, store.Do(context.Background(), user, fn))
}

func testLedgerUpsert(t *testing.T, newStore Factory) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Read().Ledger.Get(ctx, "alice", day)
	assert.True(t, shared.IsNotFound(err))

	do(t, store, "alice", func(ctx context.Context, s command.Stores) error {
		r, err := s.Ledger.Upsert(ctx, "alice", day, activity.Delta{Points: 5})
		require.NoError(t, err)
		assert.Equal(t, 0, r.QuizzesCompleted)
		assert.Equal(t, 5, r.PointsEarned)
		assert.False(t, r.IsMeaningful())

		r, err = s.Ledger.Upsert(ctx, "alice", day, activity.QuizCompleted(10))
		require.NoError(t, err)
		assert.Equal(t, 1, r.QuizzesCompleted)
		assert.Equal(t, 15, r.PointsEarned)

		r, err = s.Ledger.Upsert(ctx, "alice", day, activity.ArticleRead(0))
		require.NoError(t, err)
		assert.Equal(t, 1, r.ArticlesRead)
		return nil
	})

	r, err := store.Read().Ledger.Get(ctx, "alice", day)
	require.NoError(t, err)
	assert.True(t, r.Date.Equal(day))
	assert.Equal(t, shared.UserID("alice"), r.UserID)
	assert.Equal(t, 1, r.ArticlesRead)
	assert.Equal(t, 1, r.QuizzesCompleted)
	assert.Equal(t, 15, r.PointsEarned)

	active, err := activity.HasMeaningfulActivity(ctx, store.Read().Ledger, "alice", day)
	require.NoError(t, err)
	assert.True(t, active)

	active, err = activity.HasMeaningfulActivity(ctx, store.Read().Ledger, "alice", day.AddDays(-1))
	require.NoError(t, err)
	assert.False(t, active)
}

func testLedgerListRecent(t *testing.T, newStore Factory) {
	store, _ := newStore(t)
	ctx := context.Background()

	do(t, store, "alice", func(ctx context.Context, s command.Stores) error {
		for i := 0; i < 10; i++ {
			_, err := s.Ledger.Upsert(ctx, "alice", day.AddDays(-i), activity.QuizCompleted(i))
			require.NoError(t, err)
		}
		return nil
	})
	do(t, store, "bob", func(ctx context.Context, s command.Stores) error {
		_, err := s.Ledger.Upsert(ctx, "bob", day.AddDays(1), activity.ArticleRead(1))
		return err
	})

	records, err := store.Read().Ledger.ListRecent(ctx, "alice", activity.RecentLimit)
	require.NoError(t, err)
	require.Len(t, records, activity.RecentLimit)
	for i, r := range records {
		assert.True(t, r.Date.Equal(day.AddDays(-i)), "record %d is %s", i, r.Date)
		assert.Equal(t, shared.UserID("alice"), r.UserID)
	}

	records, err = store.Read().Ledger.ListRecent(ctx, "carol", activity.RecentLimit)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func testStreakState(t *testing.T, newStore Factory) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Read().Streaks.Get(ctx, "alice")
	assert.True(t, shared.IsNotFound(err))

	do(t, store, "alice", func(ctx context.Context, s command.Stores) error {
		state, err := s.Streaks.GetOrCreate(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, state.IsNeverActive())
		assert.Equal(t, 0, state.CurrentStreak)

		again, err := s.Streaks.GetOrCreate(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, state.UserID, again.UserID)
		return nil
	})

	state, err := store.Read().Streaks.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, state.IsNeverActive())

	do(t, store, "alice", func(ctx context.Context, s command.Stores) error {
		state, err := s.Streaks.GetOrCreate(ctx, "alice")
		require.NoError(t, err)
		state.Apply(day, false, false)
		require.NoError(t, state.AddPoints(120))
		state.Touch(timestamp)
		return s.Streaks.Save(ctx, state)
	})

	state, err = store.Read().Streaks.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentStreak)
	assert.Equal(t, 1, state.LongestStreak)
	assert.Equal(t, 120, state.TotalPoints)
	assert.Equal(t, "2026-10-17", state.LastActivityDate.String())
	assert.WithinDuration(t, timestamp, state.UpdatedAt, time.Second)
}

func testQuizResults(t *testing.T, newStore Factory) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Read().Quizzes.Get(ctx, "alice", "a1")
	assert.True(t, shared.IsNotFound(err))

	spent := 90 * time.Second
	do(t, store, "alice", func(ctx context.Context, s command.Stores) error {
		require.NoError(t, s.Quizzes.Create(ctx, &quiz.Result{
			UserID: "alice", ItemID: "a1", Score: 70, PointsEarned: 14, CompletedAt: timestamp, TimeSpent: &spent,
		}))
		require.NoError(t, s.Quizzes.Create(ctx, &quiz.Result{
			UserID: "alice", ItemID: "a2", Score: 45, PointsEarned: 9, CompletedAt: timestamp,
		}))
		return nil
	})

	err = store.Do(ctx, "alice", func(ctx context.Context, s command.Stores) error {
		return s.Quizzes.Create(ctx, &quiz.Result{UserID: "alice", ItemID: "a1", Score: 10, CompletedAt: timestamp})
	})
	assert.Error(t, err)

	got, err := store.Read().Quizzes.Get(ctx, "alice", "a1")
	require.NoError(t, err)
	assert.Equal(t, 70, got.Score)
	assert.Equal(t, 14, got.PointsEarned)
	require.NotNil(t, got.TimeSpent)
	assert.Equal(t, spent, *got.TimeSpent)
	assert.WithinDuration(t, timestamp, got.CompletedAt, time.Second)

	other, err := store.Read().Quizzes.Get(ctx, "alice", "a2")
	require.NoError(t, err)
	assert.Nil(t, other.TimeSpent)

	do(t, store, "alice", func(ctx context.Context, s command.Stores) error {
		return s.Quizzes.Update(ctx, &quiz.Result{UserID: "alice", ItemID: "a1", Score: 90, PointsEarned: 18})
	})

	got, err = store.Read().Quizzes.Get(ctx, "alice", "a1")
	require.NoError(t, err)
	assert.Equal(t, 90, got.Score)
	assert.Equal(t, 18, got.PointsEarned)
	assert.Nil(t, got.TimeSpent)
	assert.WithinDuration(t, timestamp, got.CompletedAt, time.Second)

	summary, err := store.Read().Quizzes.Summary(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, quiz.Summary{Count: 2, ScoreSum: 135}, summary)

	summary, err = store.Read().Quizzes.Summary(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, quiz.Summary{}, summary)
}

func seedCatalog(t *testing.T, catalog badge.CatalogStore) []badge.Badge {
	t.Helper()
	badges := badge.DefaultCatalog()
	require.NoError(t, badge.Seed(context.Background(), catalog, badges))
	return badges
}

func testBadgeCatalog(t *testing.T, newStore Factory) {
	_, catalog := newStore(t)
	ctx := context.Background()

	seeded := seedCatalog(t, catalog)
	for _, b := range seeded {
		assert.NotZero(t, b.ID, b.Name)
	}

	// seeding twice keeps IDs and does not duplicate entries
	again := seedCatalog(t, catalog)
	for i := range seeded {
		assert.Equal(t, seeded[i].ID, again[i].ID)
	}

	retired := badge.Badge{Name: "Retired", PointsRequired: 1, IsActive: false}
	require.NoError(t, catalog.UpsertBadge(ctx, &retired))

	active, err := catalog.ActiveBadges(ctx)
	require.NoError(t, err)
	assert.Len(t, active, len(seeded))
	for _, b := range active {
		assert.NotEqual(t, "Retired", b.Name)
	}

	snapshot := badge.NewCatalog(active)
	first := snapshot.Badges()[0]
	assert.Equal(t, 0, first.PointsRequired)
}

func testBadgeGrants(t *testing.T, newStore Factory) {
	store, catalog := newStore(t)
	ctx := context.Background()
	seeded := seedCatalog(t, catalog)

	do(t, store, "alice", func(ctx context.Context, s command.Stores) error {
		ok, err := s.Badges.Grant(ctx, "alice", seeded[0].ID, timestamp)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Badges.Grant(ctx, "alice", seeded[0].ID, timestamp.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.Badges.Grant(ctx, "alice", seeded[2].ID, timestamp.Add(time.Minute))
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})

	earned, err := store.Read().Badges.ListEarned(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, earned, 2)
	assert.Equal(t, seeded[0].Name, earned[0].Badge.Name)
	assert.Equal(t, seeded[0].Icon, earned[0].Badge.Icon)
	assert.WithinDuration(t, timestamp, earned[0].EarnedAt, time.Second)
	assert.Equal(t, seeded[2].ID, earned[1].Badge.ID)

	earned, err = store.Read().Badges.ListEarned(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, earned)
}

func testRollback(t *testing.T, newStore Factory) {
	store, catalog := newStore(t)
	ctx := context.Background()
	seeded := seedCatalog(t, catalog)

	do(t, store, "alice", func(ctx context.Context, s command.Stores) error {
		_, err := s.Ledger.Upsert(ctx, "alice", day, activity.QuizCompleted(10))
		return err
	})

	err := store.Do(ctx, "alice", func(ctx context.Context, s command.Stores) error {
		if _, err := s.Ledger.Upsert(ctx, "alice", day, activity.QuizCompleted(50)); err != nil {
			return err
		}
		if _, err := s.Ledger.Upsert(ctx, "alice", day.AddDays(1), activity.ArticleRead(5)); err != nil {
			return err
		}
		state, err := s.Streaks.GetOrCreate(ctx, "alice")
		if err != nil {
			return err
		}
		state.Apply(day, false, false)
		if err := state.AddPoints(50); err != nil {
			return err
		}
		if err := s.Streaks.Save(ctx, state); err != nil {
			return err
		}
		if err := s.Quizzes.Create(ctx, &quiz.Result{UserID: "alice", ItemID: "a1", Score: 80, CompletedAt: timestamp}); err != nil {
			return err
		}
		if _, err := s.Badges.Grant(ctx, "alice", seeded[0].ID, timestamp); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	r, err := store.Read().Ledger.Get(ctx, "alice", day)
	require.NoError(t, err)
	assert.Equal(t, 1, r.QuizzesCompleted)
	assert.Equal(t, 10, r.PointsEarned)

	_, err = store.Read().Ledger.Get(ctx, "alice", day.AddDays(1))
	assert.True(t, shared.IsNotFound(err))

	_, err = store.Read().Streaks.Get(ctx, "alice")
	assert.True(t, shared.IsNotFound(err))

	_, err = store.Read().Quizzes.Get(ctx, "alice", "a1")
	assert.True(t, shared.IsNotFound(err))

	earned, err := store.Read().Badges.ListEarned(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, earned)
}

func testSameUserSerialized(t *testing.T, newStore Factory) {
	store, _ := newStore(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)

	for i := 0; i < workers; i++ {
		for _, user := range []shared.UserID{"alice", "bob"} {
			wg.Add(1)
			go func(user shared.UserID) {
				defer wg.Done()
				errs <- store.Do(ctx, user, func(ctx context.Context, s command.Stores) error {
					state, err := s.Streaks.GetOrCreate(ctx, user)
					if err != nil {
						return err
					}
					if err := state.AddPoints(1); err != nil {
						return err
					}
					return s.Streaks.Save(ctx, state)
				})
			}(user)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	for _, user := range []shared.UserID{"alice", "bob"} {
		state, err := store.Read().Streaks.Get(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, workers, state.TotalPoints, fmt.Sprintf("user %s", user))
	}
}
