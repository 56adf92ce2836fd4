// Package streak contains the per-user streak state machine.
//
// A user is either never active (CurrentStreak 0, no LastActivityDate) or
// active with a streak of n >= 1 ending on LastActivityDate. The machine
// advances at most once per calendar day: the caller tells it whether the
// ledger already showed meaningful activity for the day before the current
// event, and the machine decides between continuing, breaking or ignoring.
package streak

import (
	"time"

	"github.com/linguaromana/engagement/internal/domain/shared"
)

// Decision describes what a call to Apply did.
type Decision string

const (
	// DecisionFirst starts the first streak of a user.
	DecisionFirst Decision = "first_activity"

	// DecisionContinued extends the streak by one day.
	DecisionContinued Decision = "continued"

	// DecisionBroken starts a fresh streak of 1 after a missed day.
	DecisionBroken Decision = "broken"

	// DecisionAlreadyCounted means the day already had meaningful activity.
	DecisionAlreadyCounted Decision = "already_counted"

	// DecisionStale means the date is not after LastActivityDate.
	DecisionStale Decision = "stale"
)

// State is the streak and points state of one user.
type State struct {
	UserID           shared.UserID
	CurrentStreak    int
	LongestStreak    int
	LastActivityDate shared.Date // zero when never active
	TotalPoints      int
	UpdatedAt        time.Time
}

// NewState creates the never-active state of a user.
func NewState(userID shared.UserID) (*State, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	return &State{UserID: userID}, nil
}

// IsNeverActive reports whether no activity has ever been counted.
func (s *State) IsNeverActive() bool {
	return s.LastActivityDate.IsZero()
}

// Transition is the result of applying one activity.
type Transition struct {
	Decision Decision
	Previous int
	Current  int
	Updated  bool
}

// Apply runs the state machine for an activity on date.
//
// activeToday must be the ledger's meaningful flag for date read before the
// current event is written; activeYesterday is the flag for date-1.
func (s *State) Apply(date shared.Date, activeToday, activeYesterday bool) Transition {
	t := Transition{Previous: s.CurrentStreak, Current: s.CurrentStreak}

	if activeToday {
		t.Decision = DecisionAlreadyCounted
		return t
	}

	if s.IsNeverActive() {
		s.CurrentStreak = 1
		t.Decision = DecisionFirst
	} else {
		gap := date.DaysSince(s.LastActivityDate)
		switch {
		case gap <= 0:
			// Same day or back-dated: LastActivityDate never moves backwards.
			t.Decision = DecisionStale
			return t
		case gap == 1 || activeYesterday:
			s.CurrentStreak++
			t.Decision = DecisionContinued
		default:
			s.CurrentStreak = 1
			t.Decision = DecisionBroken
		}
	}

	s.LastActivityDate = date
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}

	t.Current = s.CurrentStreak
	t.Updated = true
	return t
}

// Reset sets the current streak to zero and returns the previous value.
// LastActivityDate and LongestStreak are kept.
func (s *State) Reset() int {
	previous := s.CurrentStreak
	s.CurrentStreak = 0
	return previous
}

// AddPoints adds a non-negative amount to the lifetime points total.
func (s *State) AddPoints(points int) error {
	if points < 0 {
		return shared.ErrNegativePoints
	}
	s.TotalPoints += points
	return nil
}

// Touch records the modification time.
func (s *State) Touch(now time.Time) {
	s.UpdatedAt = now
}

// Info is the read model of a streak state.
type Info struct {
	UserID           shared.UserID `json:"user_id"`
	CurrentStreak    int           `json:"current_streak"`
	LongestStreak    int           `json:"longest_streak"`
	LastActivityDate shared.Date   `json:"last_activity_date"`
	TotalPoints      int           `json:"total_points"`
}

// Info returns the read model of the state.
func (s *State) Info() Info {
	return Info{
		UserID:           s.UserID,
		CurrentStreak:    s.CurrentStreak,
		LongestStreak:    s.LongestStreak,
		LastActivityDate: s.LastActivityDate,
		TotalPoints:      s.TotalPoints,
	}
}
