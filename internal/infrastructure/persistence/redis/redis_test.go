package redis

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/pkg/logger"
)

type countingSource struct {
	calls  atomic.Int32
	badges []badge.Badge
}

func (s *countingSource) ActiveBadges(ctx context.Context) ([]badge.Badge, error) {
	s.calls.Add(1)
	return s.badges, nil
}

// unreachableClient points at a port nothing listens on.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// testClient connects to TEST_REDIS_ADDR and skips the test when unset.
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	cfg := DefaultConfig()
	cfg.Addr = addr
	client, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "engagement:lock:u1", LockKey("u1"))
	assert.Equal(t, "engagement:catalog:active", CatalogKey())
	assert.Equal(t, "engagement:events:badge.earned", EventChannel("badge.earned"))
}

func TestCatalogCache_FallsBackWhenRedisIsDown(t *testing.T) {
	source := &countingSource{badges: badge.DefaultCatalog()}
	cache := NewCatalogCache(source, unreachableClient(t), time.Minute, logger.Discard())

	got, err := cache.ActiveBadges(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, len(source.badges))
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestUserLocker_StorageErrorWhenRedisIsDown(t *testing.T) {
	locker := NewUserLocker(unreachableClient(t), LockerOptions{Wait: time.Second})

	_, err := locker.Lock(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, shared.IsStorage(err))
}

func TestCatalogCache_ReadThrough(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	source := &countingSource{badges: badge.DefaultCatalog()}
	cache := NewCatalogCache(source, client, time.Minute, logger.Discard())
	require.NoError(t, cache.Invalidate(ctx))

	first, err := cache.ActiveBadges(ctx)
	require.NoError(t, err)
	second, err := cache.ActiveBadges(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), source.calls.Load())

	require.NoError(t, cache.Invalidate(ctx))
	_, err = cache.ActiveBadges(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), source.calls.Load())
}

func TestUserLocker_MutualExclusion(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	user := shared.UserID("locker-test-" + time.Now().Format("150405.000000"))

	locker := NewUserLocker(client, LockerOptions{TTL: 5 * time.Second, RetryInterval: 5 * time.Millisecond})

	var (
		wg      sync.WaitGroup
		inside  atomic.Int32
		overlap atomic.Bool
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, user)
			if !assert.NoError(t, err) {
				return
			}
			if inside.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			assert.NoError(t, unlock(ctx))
		}()
	}
	wg.Wait()
	assert.False(t, overlap.Load())
}

func TestUserLocker_TimesOut(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	user := shared.UserID("locker-timeout-" + time.Now().Format("150405.000000"))

	holder := NewUserLocker(client, LockerOptions{TTL: 5 * time.Second})
	unlock, err := holder.Lock(ctx, user)
	require.NoError(t, err)
	defer func() { _ = unlock(ctx) }()

	waiter := NewUserLocker(client, LockerOptions{Wait: 50 * time.Millisecond, RetryInterval: 10 * time.Millisecond})
	_, err = waiter.Lock(ctx, user)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConcurrentModification)
}
