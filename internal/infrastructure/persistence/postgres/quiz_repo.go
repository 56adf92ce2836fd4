package postgres

import (
	"context"
	"time"

	"github.com/linguaromana/engagement/internal/domain/quiz"
	"github.com/linguaromana/engagement/internal/domain/shared"
)

// QuizRepository implements quiz.Repository using PostgreSQL.
type QuizRepository struct {
	q Querier
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(q Querier) *QuizRepository {
	return &QuizRepository{q: q}
}

const quizColumns = `user_id, item_id, score, points_earned, completed_at, time_spent_ms`

func scanQuizResult(row rowScanner) (*quiz.Result, error) {
	var (
		result      quiz.Result
		userID      string
		itemID      string
		timeSpentMS *int64
	)
	err := row.Scan(&userID, &itemID, &result.Score, &result.PointsEarned, &result.CompletedAt, &timeSpentMS)
	if err != nil {
		return nil, err
	}
	result.UserID = shared.UserID(userID)
	result.ItemID = shared.ItemID(itemID)
	if timeSpentMS != nil {
		spent := time.Duration(*timeSpentMS) * time.Millisecond
		result.TimeSpent = &spent
	}
	return &result, nil
}

func timeSpentMS(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	ms := d.Milliseconds()
	return &ms
}

// Get implements quiz.Repository.
func (r *QuizRepository) Get(ctx context.Context, userID shared.UserID, itemID shared.ItemID) (*quiz.Result, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quiz_results WHERE user_id = $1 AND item_id = $2`,
		userID.String(), itemID.String(),
	)

	result, err := scanQuizResult(row)
	if IsNoRows(err) {
		return nil, shared.ErrQuizResultNotFound
	}
	if err != nil {
		return nil, storageErr("GetQuizResult", err)
	}
	return result, nil
}

// Create implements quiz.Repository. A duplicate key aborts the surrounding
// transaction, so the caller must fail the unit of work.
func (r *QuizRepository) Create(ctx context.Context, result *quiz.Result) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO quiz_results (`+quizColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		result.UserID.String(), result.ItemID.String(), result.Score, result.PointsEarned,
		result.CompletedAt, timeSpentMS(result.TimeSpent),
	)
	if IsUniqueViolation(err) {
		return shared.WrapError(adapter, "CreateQuizResult", shared.ErrAlreadyExists, "quiz result already exists", err)
	}
	if err != nil {
		return storageErr("CreateQuizResult", err)
	}
	return nil
}

// Update implements quiz.Repository. completed_at keeps the first attempt.
func (r *QuizRepository) Update(ctx context.Context, result *quiz.Result) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE quiz_results SET score = $3, points_earned = $4, time_spent_ms = $5
		WHERE user_id = $1 AND item_id = $2`,
		result.UserID.String(), result.ItemID.String(),
		result.Score, result.PointsEarned, timeSpentMS(result.TimeSpent),
	)
	if err != nil {
		return storageErr("UpdateQuizResult", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrQuizResultNotFound
	}
	return nil
}

// Summary implements quiz.Repository.
func (r *QuizRepository) Summary(ctx context.Context, userID shared.UserID) (quiz.Summary, error) {
	var summary quiz.Summary
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(score), 0) FROM quiz_results WHERE user_id = $1`,
		userID.String(),
	).Scan(&summary.Count, &summary.ScoreSum)
	if err != nil {
		return quiz.Summary{}, storageErr("QuizSummary", err)
	}
	return summary, nil
}
