package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://localhost:9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/mge_booking.db", cfg.Database.Path)
	assert.Equal(t, 1, cfg.Booking.MinDurationHours)
	assert.Equal(t, 5, cfg.Booking.MaxDurationHours)
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_BACKEND_URL", "http://backend:9000")
	t.Setenv("TEST_API_KEY", "s3cret")

	path := writeConfig(t, `
backend:
  base_url: "${TEST_BACKEND_URL}"
  api_key: "${TEST_API_KEY}"
  cache_ttl_seconds: 90
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9000", cfg.Backend.BaseURL)
	assert.Equal(t, "s3cret", cfg.Backend.APIKey)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL())
}

func TestLoadBusinessHoursOverride(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://localhost:9000
business_hours:
  - { weekday: 1, start: 12, end: 22 }
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	table := cfg.HoursTable()
	assert.Equal(t, 12, table[time.Monday].Start)
	assert.Equal(t, 22, table[time.Monday].End)
	// Untouched weekdays keep the defaults.
	assert.Equal(t, 14, table[time.Friday].Start)
	assert.Equal(t, 25, table[time.Friday].End)
}

func TestLoadRejectsInvalidBusinessHours(t *testing.T) {
	tests := []struct {
		name string
		rule string
	}{
		{"weekday out of range", `- { weekday: 7, start: 10, end: 24 }`},
		{"end before start", `- { weekday: 1, start: 20, end: 10 }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "business_hours:\n  "+tt.rule+"\n")
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
