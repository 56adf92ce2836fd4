package postgres

import (
	"context"
	"time"

	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/shared"
)

const badgeColumns = `id, name, description, icon, points_required, quiz_count_required, streak_required, is_active`

func badgeDest(b *badge.Badge, id *int64) []any {
	return []any{id, &b.Name, &b.Description, &b.Icon, &b.PointsRequired, &b.QuizCountRequired, &b.StreakRequired, &b.IsActive}
}

// BadgeRepository implements badge.Repository using PostgreSQL.
type BadgeRepository struct {
	q Querier
}

// NewBadgeRepository creates a new BadgeRepository.
func NewBadgeRepository(q Querier) *BadgeRepository {
	return &BadgeRepository{q: q}
}

// ListEarned implements badge.Repository.
func (r *BadgeRepository) ListEarned(ctx context.Context, userID shared.UserID) ([]badge.UserBadge, error) {
	rows, err := r.q.Query(ctx, `
		SELECT b.id, b.name, b.description, b.icon, b.points_required,
		       b.quiz_count_required, b.streak_required, b.is_active, ub.earned_at
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = $1
		ORDER BY ub.earned_at, ub.badge_id`,
		userID.String(),
	)
	if err != nil {
		return nil, storageErr("ListEarnedBadges", err)
	}
	defer rows.Close()

	var earned []badge.UserBadge
	for rows.Next() {
		ub := badge.UserBadge{UserID: userID}
		var id int64
		if err := rows.Scan(append(badgeDest(&ub.Badge, &id), &ub.EarnedAt)...); err != nil {
			return nil, storageErr("ListEarnedBadges", err)
		}
		ub.Badge.ID = shared.BadgeID(id)
		earned = append(earned, ub)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("ListEarnedBadges", err)
	}
	return earned, nil
}

// Grant implements badge.Repository.
func (r *BadgeRepository) Grant(ctx context.Context, userID shared.UserID, badgeID shared.BadgeID, earnedAt time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO user_badges (user_id, badge_id, earned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_id) DO NOTHING`,
		userID.String(), int64(badgeID), earnedAt,
	)
	if err != nil {
		return false, storageErr("GrantBadge", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// CatalogStore reads and seeds the badges table.
type CatalogStore struct {
	q Querier
}

// NewCatalogStore creates a new CatalogStore.
func NewCatalogStore(q Querier) *CatalogStore {
	return &CatalogStore{q: q}
}

// ActiveBadges implements badge.CatalogSource.
func (c *CatalogStore) ActiveBadges(ctx context.Context) ([]badge.Badge, error) {
	rows, err := c.q.Query(ctx,
		`SELECT `+badgeColumns+` FROM badges WHERE is_active ORDER BY points_required, id`,
	)
	if err != nil {
		return nil, storageErr("ActiveBadges", err)
	}
	defer rows.Close()

	var badges []badge.Badge
	for rows.Next() {
		var b badge.Badge
		var id int64
		if err := rows.Scan(badgeDest(&b, &id)...); err != nil {
			return nil, storageErr("ActiveBadges", err)
		}
		b.ID = shared.BadgeID(id)
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("ActiveBadges", err)
	}
	return badges, nil
}

// UpsertBadge implements badge.CatalogStore.
func (c *CatalogStore) UpsertBadge(ctx context.Context, b *badge.Badge) error {
	var id int64
	err := c.q.QueryRow(ctx, `
		INSERT INTO badges (name, description, icon, points_required, quiz_count_required, streak_required, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			description         = EXCLUDED.description,
			icon                = EXCLUDED.icon,
			points_required     = EXCLUDED.points_required,
			quiz_count_required = EXCLUDED.quiz_count_required,
			streak_required     = EXCLUDED.streak_required,
			is_active           = EXCLUDED.is_active
		RETURNING id`,
		b.Name, b.Description, b.Icon, b.PointsRequired, b.QuizCountRequired, b.StreakRequired, b.IsActive,
	).Scan(&id)
	if err != nil {
		return storageErr("UpsertBadge", err)
	}
	b.ID = shared.BadgeID(id)
	return nil
}
