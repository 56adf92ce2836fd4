package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linguaromana/engagement/internal/domain/activity"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/internal/domain/streak"
	"github.com/linguaromana/engagement/pkg/logger"
	"github.com/linguaromana/engagement/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK STATE MACHINE
// Order contract for every meaningful event: check ledger, decide streak,
// then increment ledger. The machine only reads the ledger; callers that
// record an event write the ledger after the machine has run.
// ══════════════════════════════════════════════════════════════════════════════

// ApplyActivityCommand runs the streak machine for one activity date.
type ApplyActivityCommand struct {
	UserID shared.UserID

	// Date is the activity date. Zero means today in the reference clock.
	Date shared.Date

	CorrelationID string
}

// Validate validates the command.
func (c ApplyActivityCommand) Validate() error {
	if !c.UserID.IsValid() {
		return shared.ErrInvalidUserID
	}
	return nil
}

// ApplyActivityResult is the outcome of one streak decision.
type ApplyActivityResult struct {
	// StreakUpdated is true when this call counted a new day.
	StreakUpdated bool

	// CurrentStreak is the streak after the call.
	CurrentStreak int

	// PreviousStreak is the streak before the call.
	PreviousStreak int

	// StreakBroken is true when a gap reset the streak to 1.
	StreakBroken bool

	// Decision names the branch the machine took.
	Decision streak.Decision

	// Date is the activity date the decision was made for.
	Date shared.Date
}

func newApplyActivityResult(t streak.Transition, date shared.Date) *ApplyActivityResult {
	return &ApplyActivityResult{
		StreakUpdated:  t.Updated,
		CurrentStreak:  t.Current,
		PreviousStreak: t.Previous,
		StreakBroken:   t.Decision == streak.DecisionBroken,
		Decision:       t.Decision,
		Date:           date,
	}
}

// StreakMachine handles streak transitions and resets.
type StreakMachine struct {
	store     Store
	publisher shared.EventPublisher
	clock     timeutil.Clock
	logger    *slog.Logger
}

// NewStreakMachine creates a new StreakMachine.
func NewStreakMachine(store Store, publisher shared.EventPublisher, clock timeutil.Clock, log *slog.Logger) *StreakMachine {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = timeutil.NewSystemClock(nil)
	}
	return &StreakMachine{
		store:     store,
		publisher: publisher,
		clock:     clock,
		logger:    logger.OrDefault(log).With(logger.Component("streak_machine")),
	}
}

// ApplyActivity decides whether the streak increments, resets or stays for
// an activity on the command's date and persists the decision.
func (m *StreakMachine) ApplyActivity(ctx context.Context, cmd ApplyActivityCommand) (*ApplyActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("apply_activity: validation failed: %w", err)
	}

	date := activityDate(m.clock, cmd.Date)
	out := newOutbox(cmd.CorrelationID)

	var result *ApplyActivityResult
	err := m.store.Do(ctx, cmd.UserID, func(ctx context.Context, s Stores) error {
		state, t, err := m.advance(ctx, s, out, cmd.UserID, date)
		if err != nil {
			return err
		}
		if t.Updated {
			state.Touch(m.clock.Now())
			if err := s.Streaks.Save(ctx, state); err != nil {
				return fmt.Errorf("save streak state: %w", err)
			}
		}
		result = newApplyActivityResult(t, date)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply_activity: %w", err)
	}

	out.publish(m.publisher, m.logger)
	return result, nil
}

// ResetStreak sets the current streak to zero. LastActivityDate is kept.
// Returns the streak value before the reset.
func (m *StreakMachine) ResetStreak(ctx context.Context, userID shared.UserID) (int, error) {
	if !userID.IsValid() {
		return 0, fmt.Errorf("reset_streak: validation failed: %w", shared.ErrInvalidUserID)
	}

	out := newOutbox("")

	var previous int
	err := m.store.Do(ctx, userID, func(ctx context.Context, s Stores) error {
		state, err := s.Streaks.GetOrCreate(ctx, userID)
		if err != nil {
			return fmt.Errorf("load streak state: %w", err)
		}

		now := m.clock.Now()
		previous = state.Reset()
		state.Touch(now)
		if err := s.Streaks.Save(ctx, state); err != nil {
			return fmt.Errorf("save streak state: %w", err)
		}

		out.add(shared.NewStreakResetEvent(userID, previous, now))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reset_streak: %w", err)
	}

	m.logger.Info("streak reset",
		logger.UserID(userID.String()),
		slog.Int("previous_streak", previous),
	)

	out.publish(m.publisher, m.logger)
	return previous, nil
}

// advance loads the state and runs the transition for date inside a unit of
// work. It must run before the ledger is incremented for the same event.
// The returned state is not saved.
func (m *StreakMachine) advance(
	ctx context.Context,
	s Stores,
	out *outbox,
	userID shared.UserID,
	date shared.Date,
) (*streak.State, streak.Transition, error) {
	state, err := s.Streaks.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, streak.Transition{}, fmt.Errorf("load streak state: %w", err)
	}

	activeToday, err := activity.HasMeaningfulActivity(ctx, s.Ledger, userID, date)
	if err != nil {
		return nil, streak.Transition{}, fmt.Errorf("check ledger: %w", err)
	}

	activeYesterday := false
	if !activeToday && !state.IsNeverActive() {
		activeYesterday, err = activity.HasMeaningfulActivity(ctx, s.Ledger, userID, date.AddDays(-1))
		if err != nil {
			return nil, streak.Transition{}, fmt.Errorf("check ledger: %w", err)
		}
	}

	t := state.Apply(date, activeToday, activeYesterday)

	if !t.Updated {
		m.logger.Debug("streak unchanged",
			logger.UserID(userID.String()),
			logger.Date(date.String()),
			slog.String("decision", string(t.Decision)),
			logger.Streak(t.Current),
		)
		return state, t, nil
	}

	event := shared.NewStreakUpdatedEvent(
		userID, date,
		t.Previous, t.Current, state.LongestStreak,
		t.Decision == streak.DecisionBroken,
		m.clock.Now(),
	)
	event.CorrelationID = out.correlationID
	out.add(event)

	m.logger.Info("streak updated",
		logger.UserID(userID.String()),
		logger.Date(date.String()),
		slog.String("decision", string(t.Decision)),
		slog.Int("previous_streak", t.Previous),
		logger.Streak(t.Current),
	)

	return state, t, nil
}
