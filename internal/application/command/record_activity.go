package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linguaromana/engagement/internal/domain/activity"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/pkg/logger"
	"github.com/linguaromana/engagement/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY LEDGER
// One record per user and calendar day. The ledger is the source of truth for
// "was this user already active today"; it never decides streaks itself.
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityCommand adds counters to the (user, date) ledger record.
type RecordActivityCommand struct {
	// UserID is the caller-authenticated user.
	UserID shared.UserID

	// Date is the activity date. Zero means today in the reference clock.
	Date shared.Date

	// Delta is added to the record. Every field must be non-negative.
	Delta activity.Delta

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordActivityCommand) Validate() error {
	if !c.UserID.IsValid() {
		return shared.ErrInvalidUserID
	}
	return c.Delta.Validate()
}

// ActivityLedger handles ledger writes and the meaningful-activity read.
type ActivityLedger struct {
	store     Store
	publisher shared.EventPublisher
	clock     timeutil.Clock
	logger    *slog.Logger
}

// NewActivityLedger creates a new ActivityLedger.
func NewActivityLedger(store Store, publisher shared.EventPublisher, clock timeutil.Clock, log *slog.Logger) *ActivityLedger {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = timeutil.NewSystemClock(nil)
	}
	return &ActivityLedger{
		store:     store,
		publisher: publisher,
		clock:     clock,
		logger:    logger.OrDefault(log).With(logger.Component("activity_ledger")),
	}
}

// RecordActivity creates the (user, date) record if absent and adds the
// deltas in one atomic step. Returns the resulting record.
func (l *ActivityLedger) RecordActivity(ctx context.Context, cmd RecordActivityCommand) (*activity.Record, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_activity: validation failed: %w", err)
	}

	date := activityDate(l.clock, cmd.Date)
	out := newOutbox(cmd.CorrelationID)

	var record *activity.Record
	err := l.store.Do(ctx, cmd.UserID, func(ctx context.Context, s Stores) error {
		var err error
		record, err = l.record(ctx, s, out, cmd.UserID, date, cmd.Delta)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("record_activity: %w", err)
	}

	out.publish(l.publisher, l.logger)
	return record, nil
}

// HasMeaningfulActivity reports whether the user has a record for date with
// at least one article read or quiz completed.
func (l *ActivityLedger) HasMeaningfulActivity(ctx context.Context, userID shared.UserID, date shared.Date) (bool, error) {
	if !userID.IsValid() {
		return false, fmt.Errorf("has_meaningful_activity: %w", shared.ErrInvalidUserID)
	}

	active, err := activity.HasMeaningfulActivity(ctx, l.store.Read().Ledger, userID, activityDate(l.clock, date))
	if err != nil {
		return false, fmt.Errorf("has_meaningful_activity: %w", err)
	}
	return active, nil
}

// record upserts the ledger inside a running unit of work.
func (l *ActivityLedger) record(
	ctx context.Context,
	s Stores,
	out *outbox,
	userID shared.UserID,
	date shared.Date,
	delta activity.Delta,
) (*activity.Record, error) {
	record, err := s.Ledger.Upsert(ctx, userID, date, delta)
	if err != nil {
		return nil, fmt.Errorf("upsert ledger: %w", err)
	}

	event := shared.NewActivityRecordedEvent(
		userID, date,
		record.ArticlesRead, record.QuizzesCompleted, record.PointsEarned,
		l.clock.Now(),
	)
	event.CorrelationID = out.correlationID
	out.add(event)

	l.logger.Debug("ledger updated",
		logger.UserID(userID.String()),
		logger.Date(date.String()),
		slog.Int("articles_read", record.ArticlesRead),
		slog.Int("quizzes_completed", record.QuizzesCompleted),
		logger.Points(record.PointsEarned),
	)

	return record, nil
}

// activityDate returns d, or today in the clock's location when d is zero.
func activityDate(clock timeutil.Clock, d shared.Date) shared.Date {
	if !d.IsZero() {
		return d
	}
	return shared.DateOf(clock.Now())
}
