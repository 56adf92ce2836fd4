package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("APP_TIMEZONE", "")
	t.Setenv("REDIS_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "Europe/Paris", cfg.App.Timezone)
	assert.Equal(t, "Europe/Paris", cfg.App.Location.String())
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Redis.LockTTL)
	assert.True(t, cfg.Engine.SeedDefaultBadges)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_TIMEZONE", "Asia/Almaty")
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/engagement")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_LOCK_WAIT", "750ms")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 25, cfg.Storage.MaxConns)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 750*time.Millisecond, cfg.Redis.LockWait)
	assert.Equal(t, "text", cfg.Observability.LogFormat)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SQLITE_PATH=/tmp/from-dotenv.db\nLOG_LEVEL=debug\n"), 0o600))

	t.Setenv("STORAGE_DRIVER", "sqlite")
	// Registered so t.Setenv restores the variables godotenv sets.
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("LOG_LEVEL", "warn")
	require.NoError(t, os.Unsetenv("SQLITE_PATH"))

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "warn", cfg.Observability.LogLevel, "environment wins over .env")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_TIMEZONE")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:           AppConfig{Environment: EnvDevelopment},
			Storage:       StorageConfig{Driver: DriverMemory, ConnectAttempts: 1},
			Observability: ObservabilityConfig{LogFormat: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid memory", mutate: func(*Config) {}},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Storage.Driver = "mongo" },
			wantErr: "STORAGE_DRIVER",
		},
		{
			name:    "postgres without url",
			mutate:  func(c *Config) { c.Storage.Driver = DriverPostgres },
			wantErr: "DATABASE_URL",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Storage.Driver = DriverSQLite },
			wantErr: "SQLITE_PATH",
		},
		{
			name:    "memory in production",
			mutate:  func(c *Config) { c.App.Environment = EnvProduction },
			wantErr: "memory driver",
		},
		{
			name: "redis without lock ttl",
			mutate: func(c *Config) {
				c.Redis = RedisConfig{Enabled: true, Addr: "localhost:6379"}
			},
			wantErr: "REDIS_LOCK_TTL",
		},
		{
			name:    "redis disabled ignores its settings",
			mutate:  func(c *Config) { c.Redis = RedisConfig{Enabled: false} },
			wantErr: "",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Observability.LogFormat = "xml" },
			wantErr: "LOG_FORMAT",
		},
		{
			name:    "no connect attempts",
			mutate:  func(c *Config) { c.Storage.ConnectAttempts = 0 },
			wantErr: "DB_CONNECT_ATTEMPTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
