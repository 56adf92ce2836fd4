package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaromana/engagement/internal/domain/shared"
)

var today = shared.NewDate(2026, time.October, 17)

func newState(t *testing.T) *State {
	t.Helper()
	s, err := NewState("user-1")
	require.NoError(t, err)
	return s
}

func TestNewState_RejectsEmptyUser(t *testing.T) {
	_, err := NewState(" ")
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)
}

func TestApply_FirstActivityStartsAtOne(t *testing.T) {
	s := newState(t)
	require.True(t, s.IsNeverActive())

	tr := s.Apply(today, false, false)

	assert.True(t, tr.Updated)
	assert.Equal(t, DecisionFirst, tr.Decision)
	assert.Equal(t, 0, tr.Previous)
	assert.Equal(t, 1, tr.Current)
	assert.Equal(t, 1, s.LongestStreak)
	assert.True(t, s.LastActivityDate.Equal(today))
}

func TestApply_ConsecutiveDays(t *testing.T) {
	s := newState(t)
	start := today.AddDays(-9)

	for i := 0; i < 10; i++ {
		tr := s.Apply(start.AddDays(i), false, i > 0)
		require.True(t, tr.Updated)
	}

	assert.Equal(t, 10, s.CurrentStreak)
	assert.Equal(t, 10, s.LongestStreak)
	assert.True(t, s.LastActivityDate.Equal(today))
}

func TestApply_NextDayIncrements(t *testing.T) {
	s := newState(t)
	s.CurrentStreak = 1
	s.LongestStreak = 1
	s.LastActivityDate = today.AddDays(-1)

	tr := s.Apply(today, false, true)

	assert.True(t, tr.Updated)
	assert.Equal(t, DecisionContinued, tr.Decision)
	assert.Equal(t, 2, tr.Current)
}

func TestApply_SameDayIsIgnored(t *testing.T) {
	s := newState(t)
	s.CurrentStreak = 2
	s.LastActivityDate = today

	tr := s.Apply(today, true, true)

	assert.False(t, tr.Updated)
	assert.Equal(t, DecisionAlreadyCounted, tr.Decision)
	assert.Equal(t, 2, tr.Current)
	assert.Equal(t, 2, s.CurrentStreak)
}

func TestApply_GapResetsToOne(t *testing.T) {
	for _, gap := range []int{2, 3, 30, 400} {
		s := newState(t)
		s.CurrentStreak = 3
		s.LongestStreak = 5
		s.LastActivityDate = today.AddDays(-gap)

		tr := s.Apply(today, false, false)

		assert.True(t, tr.Updated, "gap %d", gap)
		assert.Equal(t, DecisionBroken, tr.Decision, "gap %d", gap)
		assert.Equal(t, 1, s.CurrentStreak, "gap %d", gap)
		assert.Equal(t, 5, s.LongestStreak, "gap %d", gap)
		assert.True(t, s.LastActivityDate.Equal(today), "gap %d", gap)
	}
}

func TestApply_YesterdayLedgerContinuesStreak(t *testing.T) {
	// LastActivityDate lags behind the ledger; yesterday's record still counts.
	s := newState(t)
	s.CurrentStreak = 4
	s.LastActivityDate = today.AddDays(-3)

	tr := s.Apply(today, false, true)

	assert.Equal(t, DecisionContinued, tr.Decision)
	assert.Equal(t, 5, s.CurrentStreak)
}

func TestApply_StaleDateNeverMovesBackwards(t *testing.T) {
	s := newState(t)
	s.CurrentStreak = 4
	s.LastActivityDate = today

	for _, date := range []shared.Date{today, today.AddDays(-1), today.AddDays(-10)} {
		tr := s.Apply(date, false, true)
		assert.False(t, tr.Updated)
		assert.Equal(t, DecisionStale, tr.Decision)
	}

	assert.Equal(t, 4, s.CurrentStreak)
	assert.True(t, s.LastActivityDate.Equal(today))
}

func TestApply_AfterResetStartsAgain(t *testing.T) {
	s := newState(t)
	s.CurrentStreak = 6
	s.LongestStreak = 6
	s.LastActivityDate = today.AddDays(-1)

	assert.Equal(t, 6, s.Reset())
	assert.Equal(t, 0, s.CurrentStreak)
	assert.True(t, s.LastActivityDate.Equal(today.AddDays(-1)))

	tr := s.Apply(today, false, true)
	assert.Equal(t, 1, tr.Current)
	assert.Equal(t, 6, s.LongestStreak)
}

func TestAddPoints(t *testing.T) {
	s := newState(t)

	require.NoError(t, s.AddPoints(40))
	require.NoError(t, s.AddPoints(0))
	assert.Equal(t, 40, s.TotalPoints)

	err := s.AddPoints(-1)
	assert.ErrorIs(t, err, shared.ErrNegativePoints)
	assert.Equal(t, 40, s.TotalPoints)
}

func TestInfo(t *testing.T) {
	s := newState(t)
	s.Apply(today, false, false)
	require.NoError(t, s.AddPoints(25))

	info := s.Info()
	assert.Equal(t, shared.UserID("user-1"), info.UserID)
	assert.Equal(t, 1, info.CurrentStreak)
	assert.Equal(t, 25, info.TotalPoints)
	assert.Equal(t, "2026-10-17", info.LastActivityDate.String())
}
