package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"PORT", "HTTP_ADDR", "OPENAI_API_KEY", "OPENAI_API_URL", "OPENAI_MODEL",
	"STORAGE_DRIVER", "REDIS_ADDR", "REDIS_PASSWORD", "DATA_DIR", "HISTORY_SQLITE_PATH",
	"LOG_LEVEL", "LOG_FORMAT", "OTEL_ENDPOINT", "REMINDER_CRON", "REMINDER_ENABLED",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "loans", cfg.Storage.Key)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 600, cfg.Limits.MaxTermMonths)
	assert.False(t, cfg.Reminder.Enabled)
	assert.Equal(t, "0 0 9 * * *", cfg.Reminder.Cron)
	assert.Empty(t, cfg.History.SQLitePath)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
server:
  addr: ":9090"
  shutdown_timeout: 3s
storage:
  driver: redis
  redis_addr: "cache:6379"
  redis_db: 2
rate_limit:
  requests: 10
  window: 30s
reminder:
  enabled: true
  window_days: 7
log:
  format: console
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "cache:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, 2, cfg.Storage.RedisDB)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.True(t, cfg.Reminder.Enabled)
	assert.Equal(t, 7, cfg.Reminder.WindowDays)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server:\n  addr: \":9090\"\nstorage:\n  driver: memory\n")

	t.Setenv("PORT", "7000")
	t.Setenv("STORAGE_DRIVER", "FILE")
	t.Setenv("DATA_DIR", "/var/lib/loans")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("REMINDER_CRON", "0 */5 * * * *")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/loans", cfg.Storage.DataDir)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.True(t, cfg.Reminder.Enabled)
	assert.Equal(t, "0 */5 * * * *", cfg.Reminder.Cron)

	t.Setenv("HTTP_ADDR", "127.0.0.1:8181")
	t.Setenv("REMINDER_ENABLED", "false")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8181", cfg.Server.Addr, "HTTP_ADDR wins over PORT")
	assert.False(t, cfg.Reminder.Enabled)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, "storage.driver"},
		{"negative limit", func(c *Config) { c.Limits.MaxLoanAmount = -1 }, "limits"},
		{"negative rate window", func(c *Config) { c.RateLimit.Window = -time.Second }, "rate_limit"},
		{"reminder without cron", func(c *Config) { c.Reminder.Enabled = true; c.Reminder.Cron = "" }, "reminder.cron"},
		{"temperature", func(c *Config) { t := 3.0; c.AI.Temperature = &t }, "ai.temperature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, DefaultPath, Path())

	t.Setenv("CONFIG_PATH", "/etc/loans.yaml")
	assert.Equal(t, "/etc/loans.yaml", Path())
}
