// Package quiz contains best-score-wins quiz results per user and content item.
// This is a pure domain layer with zero external dependencies.
package quiz

import (
	"time"

	"github.com/linguaromana/engagement/internal/domain/shared"
)

// Score bounds, in percent.
const (
	MinScore = 0
	MaxScore = 100
)

// Result is the best result of a user for one content item.
type Result struct {
	UserID       shared.UserID
	ItemID       shared.ItemID
	Score        int
	PointsEarned int
	CompletedAt  time.Time
	TimeSpent    *time.Duration // nil when the caller did not measure it
}

// Submission is one attempt submitted by a user.
type Submission struct {
	UserID       shared.UserID
	ItemID       shared.ItemID
	Score        int
	PointsEarned int
	TimeSpent    *time.Duration

	// Date is the activity date credited in the ledger. Zero means today.
	Date shared.Date
}

// Validate checks the submission before any state is read or written.
func (s Submission) Validate() error {
	if !s.UserID.IsValid() {
		return shared.ErrInvalidUserID
	}
	if !s.ItemID.IsValid() {
		return shared.ErrInvalidItemID
	}
	if s.Score < MinScore || s.Score > MaxScore {
		return shared.ErrScoreOutOfRange
	}
	if s.PointsEarned < 0 {
		return shared.ErrNegativePoints
	}
	if s.TimeSpent != nil && *s.TimeSpent < 0 {
		return shared.ErrNegativeTimeSpent
	}
	return nil
}

// Outcome is the decision taken for a submission.
type Outcome struct {
	// Accepted is true for a first result or a strictly better score.
	Accepted bool

	// Created is true when no prior result existed.
	Created bool

	// PreviousScore is the stored score before the submission (0 when created).
	PreviousScore int

	// PointsDelta is what the submission adds to the user's total points.
	// It is never negative.
	PointsDelta int

	// Result is the result to persist when accepted, otherwise the stored one.
	Result *Result
}

// Merge decides how a submission affects the stored result. existing is nil
// when the user never submitted the item. Merge never mutates existing.
//
// A strictly higher score replaces score, points and time spent together and
// awards the difference in points. A lower or equal score changes nothing.
// CompletedAt keeps the time of the first submission.
func Merge(existing *Result, sub Submission, now time.Time) Outcome {
	if existing == nil {
		return Outcome{
			Accepted:    true,
			Created:     true,
			PointsDelta: sub.PointsEarned,
			Result: &Result{
				UserID:       sub.UserID,
				ItemID:       sub.ItemID,
				Score:        sub.Score,
				PointsEarned: sub.PointsEarned,
				CompletedAt:  now,
				TimeSpent:    sub.TimeSpent,
			},
		}
	}

	if sub.Score <= existing.Score {
		return Outcome{
			PreviousScore: existing.Score,
			Result:        existing,
		}
	}

	delta := sub.PointsEarned - existing.PointsEarned
	if delta < 0 {
		// A better score reported with fewer points must not lower the total.
		delta = 0
	}

	updated := *existing
	updated.Score = sub.Score
	updated.PointsEarned = sub.PointsEarned
	updated.TimeSpent = sub.TimeSpent

	return Outcome{
		Accepted:      true,
		PreviousScore: existing.Score,
		PointsDelta:   delta,
		Result:        &updated,
	}
}

// Summary aggregates the results of one user.
type Summary struct {
	Count int
	// ScoreSum is the sum of stored best scores.
	ScoreSum int
}

// AverageScore returns the mean score rounded to one decimal, 0 without results.
func (s Summary) AverageScore() float64 {
	if s.Count == 0 {
		return 0
	}
	avg := float64(s.ScoreSum) / float64(s.Count)
	return float64(int64(avg*10+0.5)) / 10
}
