package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/shared"
)

// CatalogStore reads and seeds the badges table.
type CatalogStore struct {
	q sqlx.ExtContext
}

// ActiveBadges implements badge.CatalogSource.
func (c *CatalogStore) ActiveBadges(ctx context.Context) ([]badge.Badge, error) {
	var rows []badgeRow
	err := sqlx.SelectContext(ctx, c.q, &rows,
		`SELECT `+badgeColumns+` FROM badges WHERE is_active = 1 ORDER BY points_required, id`,
	)
	if err != nil {
		return nil, storageErr("ActiveBadges", err)
	}

	badges := make([]badge.Badge, 0, len(rows))
	for _, row := range rows {
		badges = append(badges, row.toDomain())
	}
	return badges, nil
}

// UpsertBadge implements badge.CatalogStore.
func (c *CatalogStore) UpsertBadge(ctx context.Context, b *badge.Badge) error {
	var id int64
	err := sqlx.GetContext(ctx, c.q, &id, `
		INSERT INTO badges (name, description, icon, points_required, quiz_count_required, streak_required, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			description         = excluded.description,
			icon                = excluded.icon,
			points_required     = excluded.points_required,
			quiz_count_required = excluded.quiz_count_required,
			streak_required     = excluded.streak_required,
			is_active           = excluded.is_active
		RETURNING id`,
		b.Name, b.Description, b.Icon, b.PointsRequired, b.QuizCountRequired, b.StreakRequired, b.IsActive,
	)
	if err != nil {
		return storageErr("UpsertBadge", err)
	}
	b.ID = shared.BadgeID(id)
	return nil
}
