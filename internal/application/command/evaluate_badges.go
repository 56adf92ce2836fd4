package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/internal/domain/streak"
	"github.com/linguaromana/engagement/pkg/logger"
	"github.com/linguaromana/engagement/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE EVALUATOR
// Grants every active badge whose thresholds are all met. Earned badges are
// permanent: they are skipped on later evaluations and never revoked.
// ══════════════════════════════════════════════════════════════════════════════

// BadgeEvaluator handles badge grants.
type BadgeEvaluator struct {
	store     Store
	catalog   badge.CatalogSource
	publisher shared.EventPublisher
	clock     timeutil.Clock
	logger    *slog.Logger
}

// NewBadgeEvaluator creates a new BadgeEvaluator.
func NewBadgeEvaluator(
	store Store,
	catalog badge.CatalogSource,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	log *slog.Logger,
) *BadgeEvaluator {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = timeutil.NewSystemClock(nil)
	}
	return &BadgeEvaluator{
		store:     store,
		catalog:   catalog,
		publisher: publisher,
		clock:     clock,
		logger:    logger.OrDefault(log).With(logger.Component("badge_evaluator")),
	}
}

// Evaluate grants the badges the user now qualifies for and returns them in
// ascending order of points required.
func (e *BadgeEvaluator) Evaluate(ctx context.Context, userID shared.UserID) ([]badge.Badge, error) {
	if !userID.IsValid() {
		return nil, fmt.Errorf("evaluate_badges: validation failed: %w", shared.ErrInvalidUserID)
	}

	catalog, err := e.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluate_badges: %w", err)
	}

	out := newOutbox("")

	var granted []badge.Badge
	err = e.store.Do(ctx, userID, func(ctx context.Context, s Stores) error {
		state, err := s.Streaks.GetOrCreate(ctx, userID)
		if err != nil {
			return fmt.Errorf("load streak state: %w", err)
		}
		granted, err = e.evaluate(ctx, s, out, catalog, state)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate_badges: %w", err)
	}

	out.publish(e.publisher, e.logger)
	return granted, nil
}

// snapshot reads the active catalog. It runs outside units of work since the
// catalog is not owned by the engine.
func (e *BadgeEvaluator) snapshot(ctx context.Context) (badge.Catalog, error) {
	if e.catalog == nil {
		return badge.NewCatalog(nil), nil
	}
	badges, err := e.catalog.ActiveBadges(ctx)
	if err != nil {
		return badge.Catalog{}, fmt.Errorf("load badge catalog: %w", err)
	}
	return badge.NewCatalog(badges), nil
}

// evaluate runs the badge rules inside a unit of work. state must reflect
// every change made earlier in the same unit of work.
func (e *BadgeEvaluator) evaluate(
	ctx context.Context,
	s Stores,
	out *outbox,
	catalog badge.Catalog,
	state *streak.State,
) ([]badge.Badge, error) {
	if catalog.Len() == 0 {
		return nil, nil
	}

	summary, err := s.Quizzes.Summary(ctx, state.UserID)
	if err != nil {
		return nil, fmt.Errorf("load quiz summary: %w", err)
	}

	earned, err := s.Badges.ListEarned(ctx, state.UserID)
	if err != nil {
		return nil, fmt.Errorf("load earned badges: %w", err)
	}

	stats := badge.Stats{
		TotalPoints:   state.TotalPoints,
		CurrentStreak: state.CurrentStreak,
		QuizCount:     summary.Count,
	}

	now := e.clock.Now()
	var granted []badge.Badge
	for _, b := range catalog.Evaluate(stats, badge.EarnedSet(earned)) {
		ok, err := s.Badges.Grant(ctx, state.UserID, b.ID, now)
		if err != nil {
			return nil, fmt.Errorf("grant badge %q: %w", b.Name, err)
		}
		if !ok {
			continue
		}
		granted = append(granted, b)

		event := shared.NewBadgeEarnedEvent(state.UserID, b.ID, b.Name, b.Icon, now)
		event.CorrelationID = out.correlationID
		out.add(event)

		e.logger.Info("badge earned",
			logger.UserID(state.UserID.String()),
			logger.BadgeName(b.Name),
		)
	}

	return granted, nil
}
