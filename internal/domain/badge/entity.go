// Package badge contains the badge catalog and the pure rules that decide
// which badges a user has earned.
// This is a pure domain layer with zero external dependencies.
package badge

import (
	"sort"
	"strings"
	"time"

	"github.com/linguaromana/engagement/internal/domain/shared"
)

// Badge is a catalog entry. A threshold of 0 means the dimension is not required.
type Badge struct {
	ID                shared.BadgeID `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Icon              string         `json:"icon"`
	PointsRequired    int            `json:"points_required"`
	QuizCountRequired int            `json:"quiz_count_required"`
	StreakRequired    int            `json:"streak_required"`
	IsActive          bool           `json:"is_active"`
}

// Validate checks a catalog entry before it is seeded.
func (b Badge) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return shared.ErrInvalidBadge
	}
	if b.PointsRequired < 0 || b.QuizCountRequired < 0 || b.StreakRequired < 0 {
		return shared.ErrInvalidThreshold
	}
	return nil
}

// Stats are the user figures badge thresholds are compared against.
type Stats struct {
	TotalPoints   int
	CurrentStreak int
	QuizCount     int
}

// IsSatisfiedBy reports whether all three thresholds hold for stats.
func (b Badge) IsSatisfiedBy(s Stats) bool {
	return s.TotalPoints >= b.PointsRequired &&
		s.QuizCount >= b.QuizCountRequired &&
		s.CurrentStreak >= b.StreakRequired
}

// UserBadge records that a user earned a badge. It is never updated or deleted.
type UserBadge struct {
	UserID   shared.UserID
	Badge    Badge
	EarnedAt time.Time
}

// Catalog is an immutable snapshot of the active badges, ordered by
// PointsRequired ascending and then by ID.
type Catalog struct {
	badges []Badge
}

// NewCatalog builds a snapshot from the given entries, dropping inactive ones.
func NewCatalog(badges []Badge) Catalog {
	active := make([]Badge, 0, len(badges))
	for _, b := range badges {
		if b.IsActive {
			active = append(active, b)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].PointsRequired != active[j].PointsRequired {
			return active[i].PointsRequired < active[j].PointsRequired
		}
		return active[i].ID < active[j].ID
	})
	return Catalog{badges: active}
}

// Badges returns a copy of the catalog entries.
func (c Catalog) Badges() []Badge {
	out := make([]Badge, len(c.badges))
	copy(out, c.badges)
	return out
}

// Len returns the number of active badges.
func (c Catalog) Len() int {
	return len(c.badges)
}

// Evaluate returns the badges of the catalog that are satisfied by stats and
// not yet in earned, in catalog order. Earned badges are never revisited.
func (c Catalog) Evaluate(stats Stats, earned map[shared.BadgeID]bool) []Badge {
	var granted []Badge
	for _, b := range c.badges {
		if earned[b.ID] {
			continue
		}
		if b.IsSatisfiedBy(stats) {
			granted = append(granted, b)
		}
	}
	return granted
}

// DefaultCatalog is the badge set seeded into a fresh installation.
// IDs are assigned by storage.
func DefaultCatalog() []Badge {
	return []Badge{
		{Name: "Premier Pas", Description: "Complétez votre premier quiz", Icon: "🎯", QuizCountRequired: 1, IsActive: true},
		{Name: "Étudiant Assidu", Description: "Gagnez 100 points", Icon: "📚", PointsRequired: 100, IsActive: true},
		{Name: "Série de 3", Description: "Maintenez une série de 3 jours", Icon: "🔥", StreakRequired: 3, IsActive: true},
		{Name: "Expert", Description: "Gagnez 500 points", Icon: "🏆", PointsRequired: 500, IsActive: true},
		{Name: "Série de 7", Description: "Maintenez une série de 7 jours", Icon: "⚡", StreakRequired: 7, IsActive: true},
		{Name: "Maître Linguiste", Description: "Gagnez 1000 points", Icon: "👑", PointsRequired: 1000, IsActive: true},
	}
}
