// Package app assembles the engagement engine from configuration: it opens the
// selected store, optionally attaches Redis, and wires the event fan-out.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/linguaromana/engagement/config"
	"github.com/linguaromana/engagement/internal/application/command"
	"github.com/linguaromana/engagement/internal/application/engine"
	"github.com/linguaromana/engagement/internal/domain/badge"
	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/internal/infrastructure/messaging"
	"github.com/linguaromana/engagement/internal/infrastructure/persistence/memory"
	"github.com/linguaromana/engagement/internal/infrastructure/persistence/postgres"
	"github.com/linguaromana/engagement/internal/infrastructure/persistence/redis"
	"github.com/linguaromana/engagement/internal/infrastructure/persistence/sqlite"
	"github.com/linguaromana/engagement/pkg/logger"
	"github.com/linguaromana/engagement/pkg/retry"
	"github.com/linguaromana/engagement/pkg/timeutil"
)

// App owns the engine and every resource behind it.
type App struct {
	Engine *engine.Engine
	Bus    *messaging.InMemoryEventBus

	cfg     *config.Config
	logger  *slog.Logger
	store   command.Store
	catalog badge.CatalogStore
	cache   *redis.CatalogCache
	pg      *postgres.Connection
	closers []func() error
}

// New opens the configured backends and builds the engine. The caller must
// Close the App. On the memory and sqlite drivers the default badge catalog is
// seeded here when configured; Postgres is seeded by Seed after migrations.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *App, err error) {
	log = logger.OrDefault(log).With(logger.Component("app"))
	a := &App{cfg: cfg, logger: log}

	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err = a.openStore(ctx); err != nil {
		return nil, err
	}

	var (
		catalog    badge.CatalogSource = a.catalog
		locker     command.UserLocker
		publishers = messaging.Fanout{}
	)

	a.Bus = messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{AsyncMode: true, Logger: log})
	a.closers = append(a.closers, a.Bus.Close)
	publishers = append(publishers, a.Bus)

	if cfg.Redis.Enabled {
		client, err := a.connectRedis(ctx)
		if err != nil {
			return nil, err
		}
		locker = redis.NewUserLocker(client, redis.LockerOptions{
			TTL:  cfg.Redis.LockTTL,
			Wait: cfg.Redis.LockWait,
		})
		a.cache = redis.NewCatalogCache(a.catalog, client, cfg.Redis.CatalogTTL, log)
		catalog = a.cache
		if cfg.Redis.PublishEvents {
			publishers = append(publishers, messaging.NewRedisPublisher(client, 0, log))
		}
	}

	if cfg.Engine.SeedDefaultBadges && cfg.Storage.Driver != config.DriverPostgres {
		if err = a.Seed(ctx); err != nil {
			return nil, err
		}
	}

	a.Engine = engine.New(engine.Options{
		Store:     a.store,
		Catalog:   catalog,
		Locker:    locker,
		Publisher: publishers,
		Clock:     timeutil.NewSystemClock(cfg.App.Location),
		Logger:    log,
	})

	log.Info("engine ready",
		logger.Driver(cfg.Storage.Driver),
		slog.Bool("redis", cfg.Redis.Enabled),
		slog.String("timezone", cfg.App.Timezone),
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.cfg.Storage.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		a.store, a.catalog = store, store.Catalog()

	case config.DriverSQLite:
		path := a.cfg.Storage.SQLitePath
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, path, a.logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, store.Close)
		a.store, a.catalog = store, store.Catalog()

	case config.DriverPostgres:
		opts := postgres.PoolOptions{
			MaxConns:        int32(a.cfg.Storage.MaxConns),
			MinConns:        int32(a.cfg.Storage.MinConns),
			MaxConnLifetime: a.cfg.Storage.ConnMaxLifetime,
			MaxConnIdleTime: a.cfg.Storage.ConnMaxIdleTime,
		}
		if _, err := postgres.PoolConfig(a.cfg.Storage.URL, opts); err != nil {
			return err
		}
		conn, err := retry.DoValue(ctx, func(ctx context.Context) (*postgres.Connection, error) {
			return postgres.Connect(ctx, a.cfg.Storage.URL, opts)
		}, a.startupOptions("postgres")...)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { conn.Close(); return nil })
		a.pg = conn
		store := postgres.NewStore(conn)
		a.store, a.catalog = store, store.Catalog()

	default:
		return fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}

	a.logger.Info("store opened", logger.Driver(a.cfg.Storage.Driver))
	return nil
}

func (a *App) connectRedis(ctx context.Context) (*goredis.Client, error) {
	rc := redis.DefaultConfig()
	rc.Addr = a.cfg.Redis.Addr
	rc.Password = a.cfg.Redis.Password
	rc.DB = a.cfg.Redis.DB
	if a.cfg.Redis.PoolSize > 0 {
		rc.PoolSize = a.cfg.Redis.PoolSize
	}

	client, err := retry.DoValue(ctx, func(ctx context.Context) (*goredis.Client, error) {
		return redis.NewClient(ctx, rc)
	}, a.startupOptions("redis")...)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	return client, nil
}

func (a *App) startupOptions(target string) []retry.Option {
	return retry.Startup(a.cfg.Storage.ConnectAttempts, func(attempt int, err error, delay time.Duration) {
		a.logger.Warn("connection attempt failed",
			slog.String("target", target),
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", delay),
			logger.Err(err),
		)
	})
}

// Migrate brings the Postgres schema up to date and returns the number of
// applied migrations. The other drivers create their schema on open.
func (a *App) Migrate(ctx context.Context) (int, error) {
	if a.pg == nil {
		return 0, nil
	}
	return postgres.NewMigrator(a.pg).Migrate(ctx)
}

// Migrator returns the Postgres migrator, or nil on other drivers.
func (a *App) Migrator() *postgres.Migrator {
	if a.pg == nil {
		return nil
	}
	return postgres.NewMigrator(a.pg)
}

// Seed upserts the default badge catalog and drops the cached copy.
func (a *App) Seed(ctx context.Context) error {
	if err := badge.Seed(ctx, a.catalog, badge.DefaultCatalog()); err != nil {
		return fmt.Errorf("seed badge catalog: %w", err)
	}
	if a.cache != nil {
		if err := a.cache.Invalidate(ctx); err != nil {
			a.logger.Warn("catalog cache invalidation failed", logger.Err(err))
		}
	}
	a.logger.Info("badge catalog seeded", slog.Int("badges", len(badge.DefaultCatalog())))
	return nil
}

// Subscribe registers an in-process handler for engine events.
func (a *App) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return a.Bus.Subscribe(eventType, handler)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
