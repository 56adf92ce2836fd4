package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/internal/domain/streak"
)

// StreakRepository implements streak.Repository using PostgreSQL.
type StreakRepository struct {
	q Querier
}

// NewStreakRepository creates a new StreakRepository.
func NewStreakRepository(q Querier) *StreakRepository {
	return &StreakRepository{q: q}
}

const streakColumns = `user_id, current_streak, longest_streak, last_activity_date, total_points, updated_at`

func scanStreak(row rowScanner) (*streak.State, error) {
	var (
		state        streak.State
		userID       string
		lastActivity pgtype.Date
	)
	err := row.Scan(&userID, &state.CurrentStreak, &state.LongestStreak, &lastActivity, &state.TotalPoints, &state.UpdatedAt)
	if err != nil {
		return nil, err
	}
	state.UserID = shared.UserID(userID)
	if lastActivity.Valid {
		state.LastActivityDate = shared.DateOf(lastActivity.Time)
	}
	return &state, nil
}

// GetOrCreate implements streak.Repository.
func (r *StreakRepository) GetOrCreate(ctx context.Context, userID shared.UserID) (*streak.State, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO streak_states (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`,
		userID.String(),
	)
	if err != nil {
		return nil, storageErr("CreateStreak", err)
	}
	return r.Get(ctx, userID)
}

// Get implements streak.Repository.
func (r *StreakRepository) Get(ctx context.Context, userID shared.UserID) (*streak.State, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+streakColumns+` FROM streak_states WHERE user_id = $1`,
		userID.String(),
	)

	state, err := scanStreak(row)
	if IsNoRows(err) {
		return nil, shared.ErrStreakStateNotFound
	}
	if err != nil {
		return nil, storageErr("GetStreak", err)
	}
	return state, nil
}

// Save implements streak.Repository.
func (r *StreakRepository) Save(ctx context.Context, state *streak.State) error {
	var lastActivity pgtype.Date
	if !state.LastActivityDate.IsZero() {
		lastActivity = pgtype.Date{Time: state.LastActivityDate.Time(), Valid: true}
	}

	tag, err := r.q.Exec(ctx, `
		UPDATE streak_states SET
			current_streak = $2,
			longest_streak = $3,
			last_activity_date = $4,
			total_points = $5,
			updated_at = $6
		WHERE user_id = $1`,
		state.UserID.String(), state.CurrentStreak, state.LongestStreak,
		lastActivity, state.TotalPoints, state.UpdatedAt,
	)
	if err != nil {
		return storageErr("SaveStreak", err)
	}
	if tag.RowsAffected() == 0 {
		return storageErr("SaveStreak", errMissingRow)
	}
	return nil
}
