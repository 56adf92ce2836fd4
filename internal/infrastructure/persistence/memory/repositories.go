package memory

import (
	"context"
	"sort"
	"time"

	"github.com/linguaromana/engagement/internal/domain/activity"
	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/quiz"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY LEDGER
// ══════════════════════════════════════════════════════════════════════════════

type ledgerRepo struct {
	s *Store
	j *journal
}

// Upsert implements activity.Repository.
func (r *ledgerRepo) Upsert(ctx context.Context, userID shared.UserID, date shared.Date, delta activity.Delta) (*activity.Record, error) {
	if err := delta.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := ledgerKey{user: userID, date: date.String()}
	record, ok := r.s.ledger[key]
	if ok {
		previous := record
		r.j.record(func() { r.s.ledger[key] = previous })
	} else {
		record = activity.Record{UserID: userID, Date: date}
		r.j.record(func() { delete(r.s.ledger, key) })
	}

	record.Apply(delta)
	r.s.ledger[key] = record

	out := record
	return &out, nil
}

// Get implements activity.Repository.
func (r *ledgerRepo) Get(ctx context.Context, userID shared.UserID, date shared.Date) (*activity.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	record, ok := r.s.ledger[ledgerKey{user: userID, date: date.String()}]
	if !ok {
		return nil, shared.ErrRecordNotFound
	}
	return &record, nil
}

// ListRecent implements activity.Repository.
func (r *ledgerRepo) ListRecent(ctx context.Context, userID shared.UserID, limit int) ([]*activity.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var records []*activity.Record
	for key, record := range r.s.ledger {
		if key.user != userID {
			continue
		}
		rec := record
		records = append(records, &rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK STATE
// ══════════════════════════════════════════════════════════════════════════════

type streakRepo struct {
	s *Store
	j *journal
}

// GetOrCreate implements streak.Repository.
func (r *streakRepo) GetOrCreate(ctx context.Context, userID shared.UserID) (*streak.State, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	state, ok := r.s.streaks[userID]
	if !ok {
		fresh, err := streak.NewState(userID)
		if err != nil {
			return nil, err
		}
		state = *fresh
		r.s.streaks[userID] = state
		r.j.record(func() { delete(r.s.streaks, userID) })
	}
	return &state, nil
}

// Get implements streak.Repository.
func (r *streakRepo) Get(ctx context.Context, userID shared.UserID) (*streak.State, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	state, ok := r.s.streaks[userID]
	if !ok {
		return nil, shared.ErrStreakStateNotFound
	}
	return &state, nil
}

// Save implements streak.Repository.
func (r *streakRepo) Save(ctx context.Context, state *streak.State) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous, ok := r.s.streaks[state.UserID]
	if !ok {
		return storageErr("SaveStreak", errMissingRow)
	}
	r.j.record(func() { r.s.streaks[state.UserID] = previous })
	r.s.streaks[state.UserID] = *state
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ RESULTS
// ══════════════════════════════════════════════════════════════════════════════

type quizRepo struct {
	s *Store
	j *journal
}

// Get implements quiz.Repository.
func (r *quizRepo) Get(ctx context.Context, userID shared.UserID, itemID shared.ItemID) (*quiz.Result, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result, ok := r.s.quizzes[quizKey{user: userID, item: itemID}]
	if !ok {
		return nil, shared.ErrQuizResultNotFound
	}
	return &result, nil
}

// Create implements quiz.Repository.
func (r *quizRepo) Create(ctx context.Context, result *quiz.Result) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := quizKey{user: result.UserID, item: result.ItemID}
	if _, ok := r.s.quizzes[key]; ok {
		return shared.WrapError("memory", "CreateQuizResult", shared.ErrAlreadyExists, "quiz result already exists", nil)
	}
	r.s.quizzes[key] = *result
	r.j.record(func() { delete(r.s.quizzes, key) })
	return nil
}

// Update implements quiz.Repository.
func (r *quizRepo) Update(ctx context.Context, result *quiz.Result) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := quizKey{user: result.UserID, item: result.ItemID}
	previous, ok := r.s.quizzes[key]
	if !ok {
		return shared.ErrQuizResultNotFound
	}

	updated := previous
	updated.Score = result.Score
	updated.PointsEarned = result.PointsEarned
	updated.TimeSpent = result.TimeSpent
	r.s.quizzes[key] = updated
	r.j.record(func() { r.s.quizzes[key] = previous })
	return nil
}

// Summary implements quiz.Repository.
func (r *quizRepo) Summary(ctx context.Context, userID shared.UserID) (quiz.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var summary quiz.Summary
	for key, result := range r.s.quizzes {
		if key.user != userID {
			continue
		}
		summary.Count++
		summary.ScoreSum += result.Score
	}
	return summary, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EARNED BADGES
// ══════════════════════════════════════════════════════════════════════════════

type badgeRepo struct {
	s *Store
	j *journal
}

// ListEarned implements badge.Repository.
func (r *badgeRepo) ListEarned(ctx context.Context, userID shared.UserID) ([]badge.UserBadge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entries := r.s.earned[userID]
	out := make([]badge.UserBadge, 0, len(entries))
	for _, e := range entries {
		b, ok := r.s.catalog.byID[e.badgeID]
		if !ok {
			b = badge.Badge{ID: e.badgeID}
		}
		out = append(out, badge.UserBadge{UserID: userID, Badge: b, EarnedAt: e.earnedAt})
	}
	return out, nil
}

// Grant implements badge.Repository.
func (r *badgeRepo) Grant(ctx context.Context, userID shared.UserID, badgeID shared.BadgeID, earnedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous := r.s.earned[userID]
	for _, e := range previous {
		if e.badgeID == badgeID {
			return false, nil
		}
	}

	entries := make([]earnedBadge, len(previous), len(previous)+1)
	copy(entries, previous)
	r.s.earned[userID] = append(entries, earnedBadge{badgeID: badgeID, earnedAt: earnedAt})
	r.j.record(func() {
		if len(previous) == 0 {
			delete(r.s.earned, userID)
			return
		}
		r.s.earned[userID] = previous
	})
	return true, nil
}
