package postgres

import (
	"context"
	"time"

	"github.com/linguaromana/engagement/internal/domain/activity"
	"github.com/linguaromana/engagement/internal/domain/shared"
)

// ActivityRepository implements activity.Repository using PostgreSQL.
type ActivityRepository struct {
	q Querier
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(q Querier) *ActivityRepository {
	return &ActivityRepository{q: q}
}

const recordColumns = `user_id, activity_date, articles_read, quizzes_completed, points_earned`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*activity.Record, error) {
	var (
		record activity.Record
		userID string
		date   time.Time
	)
	if err := row.Scan(&userID, &date, &record.ArticlesRead, &record.QuizzesCompleted, &record.PointsEarned); err != nil {
		return nil, err
	}
	record.UserID = shared.UserID(userID)
	record.Date = shared.DateOf(date)
	return &record, nil
}

// Upsert implements activity.Repository. The increment happens in the
// database so concurrent writers never lose a delta.
func (r *ActivityRepository) Upsert(ctx context.Context, userID shared.UserID, date shared.Date, delta activity.Delta) (*activity.Record, error) {
	if err := delta.Validate(); err != nil {
		return nil, err
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO activity_records (`+recordColumns+`)
		VALUES ($1, $2::date, $3, $4, $5)
		ON CONFLICT (user_id, activity_date) DO UPDATE SET
			articles_read     = activity_records.articles_read + EXCLUDED.articles_read,
			quizzes_completed = activity_records.quizzes_completed + EXCLUDED.quizzes_completed,
			points_earned     = activity_records.points_earned + EXCLUDED.points_earned
		RETURNING `+recordColumns,
		userID.String(), date.String(), delta.Articles, delta.Quizzes, delta.Points,
	)

	record, err := scanRecord(row)
	if err != nil {
		return nil, storageErr("UpsertActivity", err)
	}
	return record, nil
}

// Get implements activity.Repository.
func (r *ActivityRepository) Get(ctx context.Context, userID shared.UserID, date shared.Date) (*activity.Record, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM activity_records WHERE user_id = $1 AND activity_date = $2::date`,
		userID.String(), date.String(),
	)

	record, err := scanRecord(row)
	if IsNoRows(err) {
		return nil, shared.ErrRecordNotFound
	}
	if err != nil {
		return nil, storageErr("GetActivity", err)
	}
	return record, nil
}

// ListRecent implements activity.Repository.
func (r *ActivityRepository) ListRecent(ctx context.Context, userID shared.UserID, limit int) ([]*activity.Record, error) {
	var limitArg any // NULL means no limit
	if limit > 0 {
		limitArg = limit
	}

	rows, err := r.q.Query(ctx, `
		SELECT `+recordColumns+` FROM activity_records
		WHERE user_id = $1
		ORDER BY activity_date DESC
		LIMIT $2`,
		userID.String(), limitArg,
	)
	if err != nil {
		return nil, storageErr("ListRecentActivity", err)
	}
	defer rows.Close()

	var records []*activity.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, storageErr("ListRecentActivity", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("ListRecentActivity", err)
	}
	return records, nil
}
