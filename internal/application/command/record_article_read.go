package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linguaromana/engagement/internal/domain/activity"
	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/pkg/logger"
	"github.com/linguaromana/engagement/pkg/timeutil"
)

// RecordArticleReadCommand records that a user finished reading an article.
type RecordArticleReadCommand struct {
	UserID shared.UserID

	// Date is the activity date. Zero means today in the reference clock.
	Date shared.Date

	// Points awarded for the read, may be zero.
	Points int

	CorrelationID string
}

// Validate validates the command.
func (c RecordArticleReadCommand) Validate() error {
	if !c.UserID.IsValid() {
		return shared.ErrInvalidUserID
	}
	if c.Points < 0 {
		return shared.ErrNegativePoints
	}
	return nil
}

// RecordArticleReadResult contains the result of an article read.
type RecordArticleReadResult struct {
	StreakUpdated bool
	CurrentStreak int
	TotalPoints   int
	Ledger        *activity.Record
	NewBadges     []badge.Badge
}

// ArticleReadHandler records article reads with the same order contract as
// quiz submissions.
type ArticleReadHandler struct {
	store     Store
	ledger    *ActivityLedger
	streaks   *StreakMachine
	badges    *BadgeEvaluator
	publisher shared.EventPublisher
	clock     timeutil.Clock
	logger    *slog.Logger
}

// NewArticleReadHandler creates a new ArticleReadHandler.
func NewArticleReadHandler(
	store Store,
	ledger *ActivityLedger,
	streaks *StreakMachine,
	badges *BadgeEvaluator,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	log *slog.Logger,
) *ArticleReadHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = timeutil.NewSystemClock(nil)
	}
	return &ArticleReadHandler{
		store:     store,
		ledger:    ledger,
		streaks:   streaks,
		badges:    badges,
		publisher: publisher,
		clock:     clock,
		logger:    logger.OrDefault(log).With(logger.Component("article_reads")),
	}
}

// Handle executes the command.
func (h *ArticleReadHandler) Handle(ctx context.Context, cmd RecordArticleReadCommand) (*RecordArticleReadResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_article_read: validation failed: %w", err)
	}

	date := activityDate(h.clock, cmd.Date)

	catalog, err := h.badges.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("record_article_read: %w", err)
	}

	out := newOutbox(cmd.CorrelationID)

	var result *RecordArticleReadResult
	err = h.store.Do(ctx, cmd.UserID, func(ctx context.Context, s Stores) error {
		state, t, err := h.streaks.advance(ctx, s, out, cmd.UserID, date)
		if err != nil {
			return err
		}
		if err := state.AddPoints(cmd.Points); err != nil {
			return err
		}
		state.Touch(h.clock.Now())
		if err := s.Streaks.Save(ctx, state); err != nil {
			return fmt.Errorf("save streak state: %w", err)
		}

		record, err := h.ledger.record(ctx, s, out, cmd.UserID, date, activity.ArticleRead(cmd.Points))
		if err != nil {
			return err
		}

		granted, err := h.badges.evaluate(ctx, s, out, catalog, state)
		if err != nil {
			return err
		}

		result = &RecordArticleReadResult{
			StreakUpdated: t.Updated,
			CurrentStreak: state.CurrentStreak,
			TotalPoints:   state.TotalPoints,
			Ledger:        record,
			NewBadges:     granted,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record_article_read: %w", err)
	}

	h.logger.Debug("article read recorded",
		logger.UserID(cmd.UserID.String()),
		logger.Date(date.String()),
		logger.Points(cmd.Points),
	)

	out.publish(h.publisher, h.logger)
	return result, nil
}
