package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "./data/activities.db", cfg.Database.Path)
	assert.Equal(t, 5.0, cfg.Tracking.MinDistanceMeters)
	assert.Equal(t, 2*time.Second, cfg.Tracking.PersistTimeout)
	assert.Equal(t, "best_for_navigation", cfg.Location.Accuracy)
	assert.Equal(t, int64(2000), cfg.Location.MinIntervalMs)
	assert.Equal(t, 5.0, cfg.Location.MinDistanceMeters)
	assert.True(t, cfg.Location.ForegroundGranted)
	assert.True(t, cfg.Location.BackgroundGranted)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "tracking", cfg.Redis.ChannelPrefix)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	content := `
server:
  port: ":9090"
tracking:
  min_distance_meters: 10
  persist_timeout: 500ms
redis:
  addr: "localhost:6379"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("TRACKER_DATABASE_PATH", "/tmp/other.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Tracking.MinDistanceMeters)
	assert.Equal(t, 500*time.Millisecond, cfg.Tracking.PersistTimeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero filter distance", func(c *Config) { c.Tracking.MinDistanceMeters = 0 }},
		{"negative persist timeout", func(c *Config) { c.Tracking.PersistTimeout = -time.Second }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"zero buffer", func(c *Config) { c.Location.Buffer = 0 }},
		{"zero cache", func(c *Config) { c.Cache.Size = 0 }},
		{"zero rate window", func(c *Config) { c.RateLimit.Window = 0 }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
