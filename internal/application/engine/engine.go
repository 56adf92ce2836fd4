// Package engine is the public surface of the engagement engine. It wires the
// command and query handlers over one store and exposes them as plain calls.
package engine

import (
	"context"
	"log/slog"

	"github.com/linguaromana/engagement/internal/application/command"
	"github.com/linguaromana/engagement/internal/application/query"
	"github.com/linguaromana/engagement/internal/domain/activity"
	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/pkg/logger"
	"github.com/linguaromana/engagement/pkg/timeutil"
)

// Options configures an Engine.
type Options struct {
	// Store is the persistence backend. Required.
	Store command.Store

	// Catalog provides the active badges. Without it no badge is ever granted.
	Catalog badge.CatalogSource

	// Locker, when set, serializes units of work across processes.
	Locker command.UserLocker

	// Publisher receives events after each committed operation.
	Publisher shared.EventPublisher

	// Clock defines "today" when callers omit the date.
	Clock timeutil.Clock

	Logger *slog.Logger
}

// Engine bundles the engagement operations.
type Engine struct {
	clock timeutil.Clock

	ledger   *command.ActivityLedger
	streaks  *command.StreakMachine
	badges   *command.BadgeEvaluator
	quizzes  *command.QuizRecorder
	articles *command.ArticleReadHandler

	streakInfo *query.GetStreakInfoHandler
	userStats  *query.GetUserStatsHandler
}

// New creates an Engine.
func New(opts Options) *Engine {
	log := logger.OrDefault(opts.Logger)
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.NewSystemClock(nil)
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}

	store := command.WithUserLock(opts.Store, opts.Locker, log)
	reads := store.Read()

	e := &Engine{clock: clock}
	e.ledger = command.NewActivityLedger(store, publisher, clock, log)
	e.streaks = command.NewStreakMachine(store, publisher, clock, log)
	e.badges = command.NewBadgeEvaluator(store, opts.Catalog, publisher, clock, log)
	e.quizzes = command.NewQuizRecorder(store, e.ledger, e.streaks, e.badges, publisher, clock, log)
	e.articles = command.NewArticleReadHandler(store, e.ledger, e.streaks, e.badges, publisher, clock, log)
	e.streakInfo = query.NewGetStreakInfoHandler(reads.Streaks)
	e.userStats = query.NewGetUserStatsHandler(reads.Streaks, reads.Ledger, reads.Quizzes, reads.Badges)
	return e
}

// Today returns the current activity date of the reference clock.
func (e *Engine) Today() shared.Date {
	return shared.DateOf(e.clock.Now())
}

// RecordActivity adds deltas to the (user, date) ledger record.
func (e *Engine) RecordActivity(ctx context.Context, userID shared.UserID, date shared.Date, delta activity.Delta) (*activity.Record, error) {
	return e.ledger.RecordActivity(ctx, command.RecordActivityCommand{UserID: userID, Date: date, Delta: delta})
}

// HasMeaningfulActivity reports whether the user read or completed anything on date.
func (e *Engine) HasMeaningfulActivity(ctx context.Context, userID shared.UserID, date shared.Date) (bool, error) {
	return e.ledger.HasMeaningfulActivity(ctx, userID, date)
}

// ApplyActivity runs the streak machine for date.
func (e *Engine) ApplyActivity(ctx context.Context, userID shared.UserID, date shared.Date) (*command.ApplyActivityResult, error) {
	return e.streaks.ApplyActivity(ctx, command.ApplyActivityCommand{UserID: userID, Date: date})
}

// ResetStreak sets the user's current streak to zero.
func (e *Engine) ResetStreak(ctx context.Context, userID shared.UserID) (int, error) {
	return e.streaks.ResetStreak(ctx, userID)
}

// GetStreakInfo reads the user's streak state.
func (e *Engine) GetStreakInfo(ctx context.Context, userID shared.UserID) (*query.StreakInfoDTO, error) {
	return e.streakInfo.Handle(ctx, userID)
}

// SubmitResult records a quiz submission.
func (e *Engine) SubmitResult(ctx context.Context, cmd command.SubmitResultCommand) (*command.SubmitResultResult, error) {
	return e.quizzes.SubmitResult(ctx, cmd)
}

// RecordArticleRead records an article read.
func (e *Engine) RecordArticleRead(ctx context.Context, cmd command.RecordArticleReadCommand) (*command.RecordArticleReadResult, error) {
	return e.articles.Handle(ctx, cmd)
}

// EvaluateBadges grants the badges the user now qualifies for.
func (e *Engine) EvaluateBadges(ctx context.Context, userID shared.UserID) ([]badge.Badge, error) {
	return e.badges.Evaluate(ctx, userID)
}

// GetUserStats reads the user's profile statistics.
func (e *Engine) GetUserStats(ctx context.Context, userID shared.UserID) (*query.UserStatsDTO, error) {
	return e.userStats.Handle(ctx, userID)
}
