package badge

import (
	"context"
	"time"

	"github.com/linguaromana/engagement/internal/domain/shared"
)

// Repository defines the interface for earned badge persistence.
type Repository interface {
	// ListEarned returns the badges earned by a user, oldest first.
	ListEarned(ctx context.Context, userID shared.UserID) ([]UserBadge, error)

	// Grant records that the user earned the badge. It reports false without
	// error when the (user, badge) pair already exists.
	Grant(ctx context.Context, userID shared.UserID, badgeID shared.BadgeID, earnedAt time.Time) (bool, error)
}

// CatalogSource provides the active badge catalog.
// The catalog is owned outside the engine and only read here.
type CatalogSource interface {
	ActiveBadges(ctx context.Context) ([]Badge, error)
}

// CatalogStore is a CatalogSource that can also be seeded.
type CatalogStore interface {
	CatalogSource

	// UpsertBadge inserts the badge or updates the entry with the same name,
	// and sets b.ID to the stored ID.
	UpsertBadge(ctx context.Context, b *Badge) error
}

// EarnedSet indexes earned badges by ID.
func EarnedSet(earned []UserBadge) map[shared.BadgeID]bool {
	set := make(map[shared.BadgeID]bool, len(earned))
	for _, ub := range earned {
		set[ub.Badge.ID] = true
	}
	return set
}

// Seed upserts every badge of the list into the store.
func Seed(ctx context.Context, store CatalogStore, badges []Badge) error {
	for i := range badges {
		if err := badges[i].Validate(); err != nil {
			return err
		}
		if err := store.UpsertBadge(ctx, &badges[i]); err != nil {
			return err
		}
	}
	return nil
}
