package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "default", config.Queue.DefaultName)
	assert.Equal(t, "json", config.Queue.FileExtension)
	assert.Equal(t, "Queue:", config.Queue.DescriptionPrefix)

	assert.Equal(t, 3, config.API.RetryCount)
	assert.Equal(t, 1*time.Second, config.API.RetryDelay)

	assert.Equal(t, 1, config.Cleanup.ThresholdDays)
	assert.Equal(t, 3600*time.Second, config.Cleanup.Interval)
	assert.False(t, config.Cleanup.AutoStart)

	assert.Equal(t, 3, config.Concurrency.MaxRetries)
	assert.Equal(t, 1*time.Second, config.Concurrency.RetryDelayBase)
	assert.Equal(t, 5*time.Second, config.Concurrency.RetryDelayMax)
	assert.InDelta(t, 0.1, config.Concurrency.JitterFactor, 1e-9)

	assert.Equal(t, "info", config.Logging.Level)
}

func TestLoadFromFilesLayering(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	require.NoError(t, os.WriteFile(base, []byte(`
[queue]
default_name = "orders"
description_prefix = "Queue:"

[cleanup]
threshold_days = 7
`), 0o644))

	override := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(override, []byte(`
[queue]
default_name = "invoices"
`), 0o644))

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	// later files win; untouched values keep the earlier layer
	assert.Equal(t, "invoices", config.Queue.DefaultName)
	assert.Equal(t, 7, config.Cleanup.ThresholdDays)
	assert.Equal(t, "json", config.Queue.FileExtension)
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GIST_TOKEN", "ghp_testtoken")
	t.Setenv("DEFAULT_QUEUE_NAME", "orders")
	t.Setenv("DEFAULT_FILE_EXTENSION", "txt")
	t.Setenv("GIST_DESCRIPTION_PREFIX", "Q:")
	t.Setenv("API_RETRY_COUNT", "5")
	t.Setenv("API_RETRY_DELAY", "2.5")
	t.Setenv("CLEANUP_THRESHOLD_DAYS", "14")
	t.Setenv("CLEANUP_INTERVAL_SECONDS", "120")
	t.Setenv("CLEANUP_SCHEDULE", "0 3 * * *")
	t.Setenv("CLEANUP_AUTO_START", "true")
	t.Setenv("CONCURRENCY_MAX_RETRIES", "7")
	t.Setenv("CONCURRENCY_RETRY_DELAY_BASE", "0.5")
	t.Setenv("CONCURRENCY_RETRY_DELAY_MAX", "10")
	t.Setenv("CONCURRENCY_JITTER_FACTOR", "0.25")
	t.Setenv("GISTQUEUE_LOG_LEVEL", "debug")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "ghp_testtoken", config.Gist.Token)
	assert.Equal(t, "orders", config.Queue.DefaultName)
	assert.Equal(t, "txt", config.Queue.FileExtension)
	assert.Equal(t, "Q:", config.Queue.DescriptionPrefix)
	assert.Equal(t, 5, config.API.RetryCount)
	assert.Equal(t, 2500*time.Millisecond, config.API.RetryDelay)
	assert.Equal(t, 14, config.Cleanup.ThresholdDays)
	assert.Equal(t, 2*time.Minute, config.Cleanup.Interval)
	assert.Equal(t, "0 3 * * *", config.Cleanup.Schedule)
	assert.True(t, config.Cleanup.AutoStart)
	assert.Equal(t, 7, config.Concurrency.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, config.Concurrency.RetryDelayBase)
	assert.Equal(t, 10*time.Second, config.Concurrency.RetryDelayMax)
	assert.InDelta(t, 0.25, config.Concurrency.JitterFactor, 1e-9)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestEnvOverridesIgnoreMalformedValues(t *testing.T) {
	t.Setenv("API_RETRY_COUNT", "lots")
	t.Setenv("CONCURRENCY_RETRY_DELAY_BASE", "-3")
	t.Setenv("CLEANUP_AUTO_START", "maybe")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 3, config.API.RetryCount)
	assert.Equal(t, 1*time.Second, config.Concurrency.RetryDelayBase)
	assert.False(t, config.Cleanup.AutoStart)
}

func TestLoadFromFilesValidation(t *testing.T) {
	t.Setenv("CONCURRENCY_JITTER_FACTOR", "2.0")

	_, err := LoadFromFiles()
	assert.Error(t, err)
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		ok    bool
	}{
		{"1", time.Second, true},
		{"2.5", 2500 * time.Millisecond, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"soon", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseSeconds(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
