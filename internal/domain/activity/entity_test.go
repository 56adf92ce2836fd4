package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaromana/engagement/internal/domain/shared"
)

func TestNewRecord(t *testing.T) {
	day := shared.NewDate(2026, time.October, 17)

	r, err := NewRecord("u1", day)
	require.NoError(t, err)
	assert.Equal(t, 0, r.ArticlesRead)
	assert.Equal(t, 0, r.QuizzesCompleted)
	assert.Equal(t, 0, r.PointsEarned)
	assert.False(t, r.IsMeaningful())

	_, err = NewRecord("", day)
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)

	_, err = NewRecord("u1", shared.Date{})
	assert.True(t, shared.IsValidation(err))
}

func TestRecord_IsMeaningful(t *testing.T) {
	tests := []struct {
		name   string
		record *Record
		want   bool
	}{
		{"nil record", nil, false},
		{"empty", &Record{}, false},
		{"points only", &Record{PointsEarned: 50}, false},
		{"article read", &Record{ArticlesRead: 1}, true},
		{"quiz completed", &Record{QuizzesCompleted: 2, PointsEarned: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.IsMeaningful())
		})
	}
}

func TestRecord_Apply(t *testing.T) {
	r := &Record{UserID: "u1", Date: shared.NewDate(2026, time.October, 17)}

	r.Apply(QuizCompleted(15))
	r.Apply(ArticleRead(5))
	r.Apply(QuizCompleted(0))

	assert.Equal(t, 1, r.ArticlesRead)
	assert.Equal(t, 2, r.QuizzesCompleted)
	assert.Equal(t, 20, r.PointsEarned)
}

func TestDelta_Validate(t *testing.T) {
	assert.NoError(t, Delta{}.Validate())
	assert.NoError(t, Delta{Articles: 1, Quizzes: 2, Points: 3}.Validate())

	for _, d := range []Delta{{Articles: -1}, {Quizzes: -1}, {Points: -1}} {
		err := d.Validate()
		assert.ErrorIs(t, err, shared.ErrNegativeDelta)
		assert.True(t, shared.IsValidation(err))
	}
}

func TestDelta_IsMeaningful(t *testing.T) {
	assert.False(t, Delta{Points: 10}.IsMeaningful())
	assert.True(t, ArticleRead(0).IsMeaningful())
	assert.True(t, QuizCompleted(0).IsMeaningful())
}
