package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaromana/engagement/internal/domain/shared"
)

var (
	first = time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	later = first.Add(26 * time.Hour)
)

func seconds(n int) *time.Duration {
	d := time.Duration(n) * time.Second
	return &d
}

func submission(score, points int) Submission {
	return Submission{UserID: "u1", ItemID: "article-7", Score: score, PointsEarned: points}
}

func TestSubmission_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sub     Submission
		wantErr error
	}{
		{"valid", submission(70, 14), nil},
		{"zero score", submission(0, 0), nil},
		{"perfect score", submission(100, 20), nil},
		{"score below range", submission(-1, 0), shared.ErrScoreOutOfRange},
		{"score above range", submission(101, 0), shared.ErrScoreOutOfRange},
		{"negative points", submission(50, -5), shared.ErrNegativePoints},
		{"empty user", Submission{ItemID: "a", Score: 1}, shared.ErrInvalidUserID},
		{"empty item", Submission{UserID: "u", Score: 1}, shared.ErrInvalidItemID},
		{"negative time", Submission{UserID: "u", ItemID: "a", Score: 1, TimeSpent: seconds(-3)}, shared.ErrNegativeTimeSpent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sub.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestMerge_FirstSubmission(t *testing.T) {
	sub := submission(70, 14)
	sub.TimeSpent = seconds(95)

	out := Merge(nil, sub, first)

	assert.True(t, out.Accepted)
	assert.True(t, out.Created)
	assert.Equal(t, 14, out.PointsDelta)
	require.NotNil(t, out.Result)
	assert.Equal(t, 70, out.Result.Score)
	assert.Equal(t, first, out.Result.CompletedAt)
	assert.Equal(t, 95*time.Second, *out.Result.TimeSpent)
}

func TestMerge_HigherScoreAwardsDelta(t *testing.T) {
	existing := Merge(nil, submission(70, 14), first).Result

	out := Merge(existing, submission(90, 18), later)

	assert.True(t, out.Accepted)
	assert.False(t, out.Created)
	assert.Equal(t, 70, out.PreviousScore)
	assert.Equal(t, 4, out.PointsDelta)
	assert.Equal(t, 90, out.Result.Score)
	assert.Equal(t, 18, out.Result.PointsEarned)
	assert.Equal(t, first, out.Result.CompletedAt)

	// existing is left untouched
	assert.Equal(t, 70, existing.Score)
}

func TestMerge_LowerOrEqualScoreIsNoop(t *testing.T) {
	existing := Merge(nil, submission(80, 16), first).Result

	for _, score := range []int{0, 50, 80} {
		out := Merge(existing, submission(score, 100), later)

		assert.False(t, out.Accepted, "score %d", score)
		assert.Equal(t, 0, out.PointsDelta, "score %d", score)
		assert.Same(t, existing, out.Result)
		assert.Equal(t, 80, out.Result.Score)
	}
}

func TestMerge_HigherScoreWithFewerPoints(t *testing.T) {
	existing := Merge(nil, submission(60, 30), first).Result

	out := Merge(existing, submission(65, 10), later)

	assert.True(t, out.Accepted)
	assert.Equal(t, 0, out.PointsDelta)
	assert.Equal(t, 10, out.Result.PointsEarned)
	assert.Equal(t, 65, out.Result.Score)
}

func TestMerge_TimeSpentFollowsScore(t *testing.T) {
	sub := submission(40, 8)
	sub.TimeSpent = seconds(120)
	existing := Merge(nil, sub, first).Result

	out := Merge(existing, submission(90, 18), later)

	assert.Nil(t, out.Result.TimeSpent)
	require.NotNil(t, existing.TimeSpent)
}

func TestSummary_AverageScore(t *testing.T) {
	assert.Equal(t, 0.0, Summary{}.AverageScore())
	assert.Equal(t, 85.0, Summary{Count: 2, ScoreSum: 170}.AverageScore())
	assert.Equal(t, 66.7, Summary{Count: 3, ScoreSum: 200}.AverageScore())
	assert.Equal(t, 33.3, Summary{Count: 3, ScoreSum: 100}.AverageScore())
}
