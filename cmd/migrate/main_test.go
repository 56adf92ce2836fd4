package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "engagement.db"))
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
}

func TestRun_SQLite(t *testing.T) {
	sqliteEnv(t)
	ctx := context.Background()
	noEnv := filepath.Join(t.TempDir(), "absent.env")

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"-env-file", noEnv, "up"}, &out))
	require.NoError(t, run(ctx, []string{"-env-file", noEnv, "seed"}, &out))

	require.NoError(t, run(ctx, []string{"-env-file", noEnv, "status"}, &out))
	assert.Contains(t, out.String(), "manages its schema on open")

	err := run(ctx, []string{"-env-file", noEnv, "down"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestRun_UnknownAction(t *testing.T) {
	sqliteEnv(t)

	err := run(context.Background(), []string{"-env-file", filepath.Join(t.TempDir(), "absent.env"), "sideways"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")
}
