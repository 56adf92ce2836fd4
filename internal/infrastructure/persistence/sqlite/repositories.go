package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/linguaromana/engagement/internal/domain/activity"
	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/quiz"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY LEDGER
// ══════════════════════════════════════════════════════════════════════════════

type recordRow struct {
	UserID           string `db:"user_id"`
	Date             string `db:"activity_date"`
	ArticlesRead     int    `db:"articles_read"`
	QuizzesCompleted int    `db:"quizzes_completed"`
	PointsEarned     int    `db:"points_earned"`
}

func (r recordRow) toDomain() (*activity.Record, error) {
	date, err := shared.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}
	return &activity.Record{
		UserID:           shared.UserID(r.UserID),
		Date:             date,
		ArticlesRead:     r.ArticlesRead,
		QuizzesCompleted: r.QuizzesCompleted,
		PointsEarned:     r.PointsEarned,
	}, nil
}

const recordColumns = `user_id, activity_date, articles_read, quizzes_completed, points_earned`

type ledgerRepo struct {
	q sqlx.ExtContext
}

// Upsert implements activity.Repository.
func (r *ledgerRepo) Upsert(ctx context.Context, userID shared.UserID, date shared.Date, delta activity.Delta) (*activity.Record, error) {
	if err := delta.Validate(); err != nil {
		return nil, err
	}

	var row recordRow
	err := sqlx.GetContext(ctx, r.q, &row, `
		INSERT INTO activity_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, activity_date) DO UPDATE SET
			articles_read     = articles_read + excluded.articles_read,
			quizzes_completed = quizzes_completed + excluded.quizzes_completed,
			points_earned     = points_earned + excluded.points_earned
		RETURNING `+recordColumns,
		userID.String(), date.String(), delta.Articles, delta.Quizzes, delta.Points,
	)
	if err != nil {
		return nil, storageErr("UpsertActivity", err)
	}
	return row.toDomain()
}

// Get implements activity.Repository.
func (r *ledgerRepo) Get(ctx context.Context, userID shared.UserID, date shared.Date) (*activity.Record, error) {
	var row recordRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT `+recordColumns+` FROM activity_records WHERE user_id = ? AND activity_date = ?`,
		userID.String(), date.String(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrRecordNotFound
	}
	if err != nil {
		return nil, storageErr("GetActivity", err)
	}
	return row.toDomain()
}

// ListRecent implements activity.Repository.
func (r *ledgerRepo) ListRecent(ctx context.Context, userID shared.UserID, limit int) ([]*activity.Record, error) {
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}

	var rows []recordRow
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT `+recordColumns+` FROM activity_records
		WHERE user_id = ?
		ORDER BY activity_date DESC
		LIMIT ?`,
		userID.String(), limit,
	)
	if err != nil {
		return nil, storageErr("ListRecentActivity", err)
	}

	records := make([]*activity.Record, 0, len(rows))
	for _, row := range rows {
		record, err := row.toDomain()
		if err != nil {
			return nil, storageErr("ListRecentActivity", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK STATE
// ══════════════════════════════════════════════════════════════════════════════

type streakRow struct {
	UserID           string         `db:"user_id"`
	CurrentStreak    int            `db:"current_streak"`
	LongestStreak    int            `db:"longest_streak"`
	LastActivityDate sql.NullString `db:"last_activity_date"`
	TotalPoints      int            `db:"total_points"`
	UpdatedAt        string         `db:"updated_at"`
}

func (r streakRow) toDomain() (*streak.State, error) {
	state := &streak.State{
		UserID:        shared.UserID(r.UserID),
		CurrentStreak: r.CurrentStreak,
		LongestStreak: r.LongestStreak,
		TotalPoints:   r.TotalPoints,
	}
	if r.LastActivityDate.Valid {
		date, err := shared.ParseDate(r.LastActivityDate.String)
		if err != nil {
			return nil, err
		}
		state.LastActivityDate = date
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	state.UpdatedAt = updatedAt
	return state, nil
}

const streakColumns = `user_id, current_streak, longest_streak, last_activity_date, total_points, updated_at`

type streakRepo struct {
	q sqlx.ExtContext
}

// GetOrCreate implements streak.Repository.
func (r *streakRepo) GetOrCreate(ctx context.Context, userID shared.UserID) (*streak.State, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO streak_states (user_id, updated_at)
		VALUES (?, ?)
		ON CONFLICT (user_id) DO NOTHING`,
		userID.String(), formatTime(time.Time{}),
	)
	if err != nil {
		return nil, storageErr("CreateStreak", err)
	}
	return r.Get(ctx, userID)
}

// Get implements streak.Repository.
func (r *streakRepo) Get(ctx context.Context, userID shared.UserID) (*streak.State, error) {
	var row streakRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT `+streakColumns+` FROM streak_states WHERE user_id = ?`,
		userID.String(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrStreakStateNotFound
	}
	if err != nil {
		return nil, storageErr("GetStreak", err)
	}

	state, err := row.toDomain()
	if err != nil {
		return nil, storageErr("GetStreak", err)
	}
	return state, nil
}

// Save implements streak.Repository.
func (r *streakRepo) Save(ctx context.Context, state *streak.State) error {
	var lastActivity sql.NullString
	if !state.LastActivityDate.IsZero() {
		lastActivity = sql.NullString{String: state.LastActivityDate.String(), Valid: true}
	}

	res, err := r.q.ExecContext(ctx, `
		UPDATE streak_states SET
			current_streak = ?,
			longest_streak = ?,
			last_activity_date = ?,
			total_points = ?,
			updated_at = ?
		WHERE user_id = ?`,
		state.CurrentStreak, state.LongestStreak, lastActivity,
		state.TotalPoints, formatTime(state.UpdatedAt), state.UserID.String(),
	)
	if err != nil {
		return storageErr("SaveStreak", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storageErr("SaveStreak", sql.ErrNoRows)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ RESULTS
// ══════════════════════════════════════════════════════════════════════════════

type quizRow struct {
	UserID       string        `db:"user_id"`
	ItemID       string        `db:"item_id"`
	Score        int           `db:"score"`
	PointsEarned int           `db:"points_earned"`
	CompletedAt  string        `db:"completed_at"`
	TimeSpentMS  sql.NullInt64 `db:"time_spent_ms"`
}

func (r quizRow) toDomain() (*quiz.Result, error) {
	completedAt, err := parseTime(r.CompletedAt)
	if err != nil {
		return nil, err
	}
	result := &quiz.Result{
		UserID:       shared.UserID(r.UserID),
		ItemID:       shared.ItemID(r.ItemID),
		Score:        r.Score,
		PointsEarned: r.PointsEarned,
		CompletedAt:  completedAt,
	}
	if r.TimeSpentMS.Valid {
		spent := time.Duration(r.TimeSpentMS.Int64) * time.Millisecond
		result.TimeSpent = &spent
	}
	return result, nil
}

func timeSpentMS(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: d.Milliseconds(), Valid: true}
}

const quizColumns = `user_id, item_id, score, points_earned, completed_at, time_spent_ms`

type quizRepo struct {
	q sqlx.ExtContext
}

// Get implements quiz.Repository.
func (r *quizRepo) Get(ctx context.Context, userID shared.UserID, itemID shared.ItemID) (*quiz.Result, error) {
	var row quizRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT `+quizColumns+` FROM quiz_results WHERE user_id = ? AND item_id = ?`,
		userID.String(), itemID.String(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrQuizResultNotFound
	}
	if err != nil {
		return nil, storageErr("GetQuizResult", err)
	}

	result, err := row.toDomain()
	if err != nil {
		return nil, storageErr("GetQuizResult", err)
	}
	return result, nil
}

// Create implements quiz.Repository.
func (r *quizRepo) Create(ctx context.Context, result *quiz.Result) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO quiz_results (`+quizColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		result.UserID.String(), result.ItemID.String(), result.Score, result.PointsEarned,
		formatTime(result.CompletedAt), timeSpentMS(result.TimeSpent),
	)
	if isConstraintViolation(err) {
		return shared.WrapError(adapter, "CreateQuizResult", shared.ErrAlreadyExists, "quiz result already exists", err)
	}
	if err != nil {
		return storageErr("CreateQuizResult", err)
	}
	return nil
}

// Update implements quiz.Repository.
func (r *quizRepo) Update(ctx context.Context, result *quiz.Result) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE quiz_results SET score = ?, points_earned = ?, time_spent_ms = ?
		WHERE user_id = ? AND item_id = ?`,
		result.Score, result.PointsEarned, timeSpentMS(result.TimeSpent),
		result.UserID.String(), result.ItemID.String(),
	)
	if err != nil {
		return storageErr("UpdateQuizResult", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return shared.ErrQuizResultNotFound
	}
	return nil
}

// Summary implements quiz.Repository.
func (r *quizRepo) Summary(ctx context.Context, userID shared.UserID) (quiz.Summary, error) {
	var row struct {
		Count    int `db:"cnt"`
		ScoreSum int `db:"score_sum"`
	}
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT COUNT(*) AS cnt, COALESCE(SUM(score), 0) AS score_sum FROM quiz_results WHERE user_id = ?`,
		userID.String(),
	)
	if err != nil {
		return quiz.Summary{}, storageErr("QuizSummary", err)
	}
	return quiz.Summary{Count: row.Count, ScoreSum: row.ScoreSum}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EARNED BADGES
// ══════════════════════════════════════════════════════════════════════════════

type badgeRow struct {
	ID                int64  `db:"id"`
	Name              string `db:"name"`
	Description       string `db:"description"`
	Icon              string `db:"icon"`
	PointsRequired    int    `db:"points_required"`
	QuizCountRequired int    `db:"quiz_count_required"`
	StreakRequired    int    `db:"streak_required"`
	IsActive          bool   `db:"is_active"`
}

func (r badgeRow) toDomain() badge.Badge {
	return badge.Badge{
		ID:                shared.BadgeID(r.ID),
		Name:              r.Name,
		Description:       r.Description,
		Icon:              r.Icon,
		PointsRequired:    r.PointsRequired,
		QuizCountRequired: r.QuizCountRequired,
		StreakRequired:    r.StreakRequired,
		IsActive:          r.IsActive,
	}
}

const badgeColumns = `id, name, description, icon, points_required, quiz_count_required, streak_required, is_active`

type earnedRow struct {
	badgeRow
	EarnedAt string `db:"earned_at"`
}

type badgeRepo struct {
	q sqlx.ExtContext
}

// ListEarned implements badge.Repository.
func (r *badgeRepo) ListEarned(ctx context.Context, userID shared.UserID) ([]badge.UserBadge, error) {
	var rows []earnedRow
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT b.id, b.name, b.description, b.icon, b.points_required,
		       b.quiz_count_required, b.streak_required, b.is_active, ub.earned_at
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = ?
		ORDER BY ub.earned_at, ub.badge_id`,
		userID.String(),
	)
	if err != nil {
		return nil, storageErr("ListEarnedBadges", err)
	}

	earned := make([]badge.UserBadge, 0, len(rows))
	for _, row := range rows {
		earnedAt, err := parseTime(row.EarnedAt)
		if err != nil {
			return nil, storageErr("ListEarnedBadges", err)
		}
		earned = append(earned, badge.UserBadge{
			UserID:   userID,
			Badge:    row.badgeRow.toDomain(),
			EarnedAt: earnedAt,
		})
	}
	return earned, nil
}

// Grant implements badge.Repository.
func (r *badgeRepo) Grant(ctx context.Context, userID shared.UserID, badgeID shared.BadgeID, earnedAt time.Time) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO user_badges (user_id, badge_id, earned_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, badge_id) DO NOTHING`,
		userID.String(), int64(badgeID), formatTime(earnedAt),
	)
	if err != nil {
		return false, storageErr("GrantBadge", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("GrantBadge", err)
	}
	return n == 1, nil
}
