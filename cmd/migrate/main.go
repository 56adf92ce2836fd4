// Package main is the operator tool of the engagement engine.
//
// Usage:
//
//	migrate [-env-file .env] [-seed] up|down|status|seed
//
// up applies pending Postgres migrations (SQLite creates its schema on open)
// and seeds the default badge catalog; down rolls back the latest migration;
// status lists migrations; seed only upserts the badge catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/linguaromana/engagement/config"
	"github.com/linguaromana/engagement/internal/app"
	"github.com/linguaromana/engagement/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	envFile := fs.String("env-file", ".env", "optional dotenv file")
	seed := fs.Bool("seed", true, "seed the default badge catalog after up")
	if err := fs.Parse(args); err != nil {
		return err
	}

	action := "up"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration and logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load(*envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// The catalog is seeded explicitly below.
	cfg.Engine.SeedDefaultBadges = false

	log := logger.New(logger.Options{
		Output:  os.Stderr,
		Level:   logger.ParseLevel(cfg.Observability.LogLevel),
		Format:  logger.ParseFormat(cfg.Observability.LogFormat),
		Service: cfg.App.Name,
	})
	log.Info("starting migrate",
		slog.String("action", action),
		logger.Driver(cfg.Storage.Driver),
		slog.String("env", string(cfg.App.Environment)),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Storage
	// ─────────────────────────────────────────────────────────────────────────
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close failed", logger.Err(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Action
	// ─────────────────────────────────────────────────────────────────────────
	switch action {
	case "up":
		start := time.Now()
		applied, err := a.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("schema is up to date", slog.Int("applied", applied), logger.Latency(time.Since(start)))
		if *seed {
			return a.Seed(ctx)
		}
		return nil

	case "down":
		m := a.Migrator()
		if m == nil {
			return fmt.Errorf("rollback is only supported on the %s driver", config.DriverPostgres)
		}
		if err := m.Rollback(ctx); err != nil {
			return fmt.Errorf("failed to roll back: %w", err)
		}
		log.Info("rolled back latest migration")
		return nil

	case "status":
		m := a.Migrator()
		if m == nil {
			fmt.Fprintf(out, "driver %s manages its schema on open\n", cfg.Storage.Driver)
			return nil
		}
		migrations, err := m.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED")
		for _, mig := range migrations {
			applied := "pending"
			if mig.IsApplied {
				applied = mig.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%03d\t%s\t%s\n", mig.Version, mig.Name, applied)
		}
		return w.Flush()

	case "seed":
		return a.Seed(ctx)

	default:
		return fmt.Errorf("unknown action %q (want up, down, status or seed)", action)
	}
}
