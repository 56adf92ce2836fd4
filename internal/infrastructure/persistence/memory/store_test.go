package memory

import (
	"testing"

	"github.com/linguaromana/engagement/internal/application/command"
	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/infrastructure/persistence/storetest"
)

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (command.Store, badge.CatalogStore) {
		s := NewStore()
		return s, s.Catalog()
	})
}
