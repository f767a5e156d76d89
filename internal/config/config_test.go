package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	prev := EnvFile
	EnvFile = filepath.Join(t.TempDir(), "missing.env")
	t.Cleanup(func() { EnvFile = prev })
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "restclient", cfg.AppName)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Zero(t, cfg.RunInterval)
	assert.Equal(t, "bbolt", cfg.JournalType)
	assert.Equal(t, 7*24*time.Hour, cfg.JournalTTL)
	assert.Equal(t, 6*time.Hour, cfg.JournalCleanupInterval)
}

func TestLoadReadsEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("TIMEOUT_MS", "250")
	t.Setenv("RUN_INTERVAL_SECONDS", "30")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("JOURNAL_TYPE", " NONE ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 30*time.Second, cfg.RunInterval)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.0001)
	assert.Equal(t, "none", cfg.JournalType)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"TIMEOUT_MS":                       "0",
		"RUN_INTERVAL_SECONDS":             "-1",
		"RATE_LIMIT_RPS":                   "-3",
		"JOURNAL_TTL_SECONDS":              "0",
		"JOURNAL_CLEANUP_INTERVAL_SECONDS": "-5",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			isolate(t)
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
