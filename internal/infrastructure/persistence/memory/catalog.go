package memory

import (
	"context"

	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/shared"
)

type catalog struct {
	byID   map[shared.BadgeID]badge.Badge
	nextID shared.BadgeID
}

func newCatalog() *catalog {
	return &catalog{byID: make(map[shared.BadgeID]badge.Badge), nextID: 1}
}

// CatalogStore exposes the badge catalog of a Store.
type CatalogStore struct {
	store *Store
}

// ActiveBadges implements badge.CatalogSource.
func (c *CatalogStore) ActiveBadges(ctx context.Context) ([]badge.Badge, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	out := make([]badge.Badge, 0, len(c.store.catalog.byID))
	for _, b := range c.store.catalog.byID {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

// UpsertBadge implements badge.CatalogStore. Entries are matched by name.
func (c *CatalogStore) UpsertBadge(ctx context.Context, b *badge.Badge) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	cat := c.store.catalog
	for id, existing := range cat.byID {
		if existing.Name == b.Name {
			b.ID = id
			cat.byID[id] = *b
			return nil
		}
	}

	b.ID = cat.nextID
	cat.nextID++
	cat.byID[b.ID] = *b
	return nil
}
