package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaromana/engagement/internal/application/command"
	"github.com/linguaromana/engagement/internal/domain/activity"
	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/internal/infrastructure/persistence/storetest"
	"github.com/linguaromana/engagement/pkg/logger"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (command.Store, badge.CatalogStore) {
		s := openMemory(t)
		return s, s.Catalog()
	})
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "engagement.db")
	day := shared.NewDate(2026, 10, 17)

	s, err := Open(ctx, path, logger.Discard())
	require.NoError(t, err)
	err = s.Do(ctx, "alice", func(ctx context.Context, st command.Stores) error {
		_, err := st.Ledger.Upsert(ctx, "alice", day, activity.QuizCompleted(12))
		return err
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, logger.Discard())
	require.NoError(t, err)
	defer s.Close()

	r, err := s.Read().Ledger.Get(ctx, "alice", day)
	require.NoError(t, err)
	assert.Equal(t, 1, r.QuizzesCompleted)
	assert.Equal(t, 12, r.PointsEarned)
}

func TestIsConstraintViolation(t *testing.T) {
	assert.False(t, isConstraintViolation(nil))
	assert.False(t, isConstraintViolation(assert.AnError))
}
