package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linguaromana/engagement/internal/domain/activity"
	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/quiz"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/pkg/logger"
	"github.com/linguaromana/engagement/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ RESULT RECORDER
// Best score wins per (user, item). An accepted submission runs, in one unit
// of work: result upsert, streak machine, ledger increment, badge evaluation.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitResultCommand submits one quiz attempt.
type SubmitResultCommand struct {
	quiz.Submission

	// CorrelationID for tracing.
	CorrelationID string
}

// SubmitResultResult contains the result of a submission.
type SubmitResultResult struct {
	// Accepted is true for a first result or a strictly better score.
	Accepted bool

	// FirstAttempt is true when no prior result existed for the item.
	FirstAttempt bool

	// Score is the stored best score after the call.
	Score int

	// PreviousScore is the stored score before the call (0 on first attempt).
	PreviousScore int

	// PointsAwarded is what this call added to TotalPoints.
	PointsAwarded int

	// TotalPoints is the user's lifetime points after the call.
	TotalPoints int

	// StreakUpdated and CurrentStreak report the streak decision.
	StreakUpdated bool
	CurrentStreak int

	// Ledger is the day's record after the call; nil when not accepted.
	Ledger *activity.Record

	// NewBadges are the badges granted by this call.
	NewBadges []badge.Badge
}

// QuizRecorder handles quiz submissions.
type QuizRecorder struct {
	store     Store
	ledger    *ActivityLedger
	streaks   *StreakMachine
	badges    *BadgeEvaluator
	publisher shared.EventPublisher
	clock     timeutil.Clock
	logger    *slog.Logger
}

// NewQuizRecorder creates a new QuizRecorder.
func NewQuizRecorder(
	store Store,
	ledger *ActivityLedger,
	streaks *StreakMachine,
	badges *BadgeEvaluator,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	log *slog.Logger,
) *QuizRecorder {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = timeutil.NewSystemClock(nil)
	}
	return &QuizRecorder{
		store:     store,
		ledger:    ledger,
		streaks:   streaks,
		badges:    badges,
		publisher: publisher,
		clock:     clock,
		logger:    logger.OrDefault(log).With(logger.Component("quiz_recorder")),
	}
}

// SubmitResult records a submission. A lower or equal score than the stored
// one is accepted=false and changes nothing.
func (r *QuizRecorder) SubmitResult(ctx context.Context, cmd SubmitResultCommand) (*SubmitResultResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_result: validation failed: %w", err)
	}

	date := activityDate(r.clock, cmd.Date)

	catalog, err := r.badges.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("submit_result: %w", err)
	}

	out := newOutbox(cmd.CorrelationID)

	var result *SubmitResultResult
	err = r.store.Do(ctx, cmd.UserID, func(ctx context.Context, s Stores) error {
		existing, err := s.Quizzes.Get(ctx, cmd.UserID, cmd.ItemID)
		if err != nil {
			if !shared.IsNotFound(err) {
				return fmt.Errorf("load quiz result: %w", err)
			}
			existing = nil
		}

		now := r.clock.Now()
		outcome := quiz.Merge(existing, cmd.Submission, now)

		if !outcome.Accepted {
			state, err := s.Streaks.GetOrCreate(ctx, cmd.UserID)
			if err != nil {
				return fmt.Errorf("load streak state: %w", err)
			}
			result = &SubmitResultResult{
				Score:         outcome.Result.Score,
				PreviousScore: outcome.PreviousScore,
				TotalPoints:   state.TotalPoints,
				CurrentStreak: state.CurrentStreak,
			}
			return nil
		}

		if outcome.Created {
			err = s.Quizzes.Create(ctx, outcome.Result)
		} else {
			err = s.Quizzes.Update(ctx, outcome.Result)
		}
		if err != nil {
			return fmt.Errorf("store quiz result: %w", err)
		}

		// check ledger, decide streak
		state, t, err := r.streaks.advance(ctx, s, out, cmd.UserID, date)
		if err != nil {
			return err
		}
		if err := state.AddPoints(outcome.PointsDelta); err != nil {
			return err
		}
		state.Touch(now)
		if err := s.Streaks.Save(ctx, state); err != nil {
			return fmt.Errorf("save streak state: %w", err)
		}

		// then increment ledger
		record, err := r.ledger.record(ctx, s, out, cmd.UserID, date, activity.QuizCompleted(outcome.PointsDelta))
		if err != nil {
			return err
		}

		granted, err := r.badges.evaluate(ctx, s, out, catalog, state)
		if err != nil {
			return err
		}

		event := shared.NewQuizResultAcceptedEvent(
			cmd.UserID, cmd.ItemID,
			outcome.Result.Score, outcome.PreviousScore,
			outcome.PointsDelta, state.TotalPoints,
			outcome.Created, now,
		)
		event.CorrelationID = out.correlationID
		out.add(event)

		result = &SubmitResultResult{
			Accepted:      true,
			FirstAttempt:  outcome.Created,
			Score:         outcome.Result.Score,
			PreviousScore: outcome.PreviousScore,
			PointsAwarded: outcome.PointsDelta,
			TotalPoints:   state.TotalPoints,
			StreakUpdated: t.Updated,
			CurrentStreak: state.CurrentStreak,
			Ledger:        record,
			NewBadges:     granted,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit_result: %w", err)
	}

	if result.Accepted {
		r.logger.Info("quiz result accepted",
			logger.UserID(cmd.UserID.String()),
			logger.ItemID(cmd.ItemID.String()),
			slog.Int("score", result.Score),
			slog.Int("previous_score", result.PreviousScore),
			logger.Points(result.PointsAwarded),
		)
	} else {
		r.logger.Debug("quiz result not better than stored score",
			logger.UserID(cmd.UserID.String()),
			logger.ItemID(cmd.ItemID.String()),
			slog.Int("score", cmd.Score),
			slog.Int("stored_score", result.Score),
		)
	}

	out.publish(r.publisher, r.logger)
	return result, nil
}
