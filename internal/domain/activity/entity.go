// Package activity contains the daily activity ledger: one record per user
// and calendar day counting articles read, quizzes completed and points earned.
// This is a pure domain layer with zero external dependencies.
package activity

import (
	"github.com/linguaromana/engagement/internal/domain/shared"
)

// RecentLimit is the number of ledger records returned for user statistics.
const RecentLimit = 7

// Record is the activity of one user on one calendar day.
// Counters start at zero and are only ever incremented.
type Record struct {
	UserID           shared.UserID
	Date             shared.Date
	ArticlesRead     int
	QuizzesCompleted int
	PointsEarned     int
}

// NewRecord creates an empty record for the (user, date) key.
func NewRecord(userID shared.UserID, date shared.Date) (*Record, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	if date.IsZero() {
		return nil, shared.ErrInvalidDate
	}

	return &Record{
		UserID: userID,
		Date:   date,
	}, nil
}

// IsMeaningful reports whether the day counts towards a streak.
// Points alone never make a day meaningful.
func (r *Record) IsMeaningful() bool {
	if r == nil {
		return false
	}
	return r.QuizzesCompleted > 0 || r.ArticlesRead > 0
}

// Apply adds the delta to the counters. The delta must have been validated.
func (r *Record) Apply(d Delta) {
	r.ArticlesRead += d.Articles
	r.QuizzesCompleted += d.Quizzes
	r.PointsEarned += d.Points
}

// Delta is an increment of the ledger counters.
type Delta struct {
	Articles int
	Quizzes  int
	Points   int
}

// Validate rejects negative increments.
func (d Delta) Validate() error {
	if d.Articles < 0 || d.Quizzes < 0 || d.Points < 0 {
		return shared.ErrNegativeDelta
	}
	return nil
}

// IsMeaningful reports whether applying the delta makes any day meaningful.
func (d Delta) IsMeaningful() bool {
	return d.Articles > 0 || d.Quizzes > 0
}

// QuizCompleted is the ledger increment for one accepted quiz submission.
func QuizCompleted(points int) Delta {
	return Delta{Quizzes: 1, Points: points}
}

// ArticleRead is the ledger increment for one article read.
func ArticleRead(points int) Delta {
	return Delta{Articles: 1, Points: points}
}
