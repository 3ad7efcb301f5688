package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Gist        GistConfig        `toml:"gist"`
	Queue       QueueConfig       `toml:"queue"`
	API         APIConfig         `toml:"api"`
	Cleanup     CleanupConfig     `toml:"cleanup"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Logging     LoggingConfig     `toml:"logging"`
}

// GistConfig holds the document store credentials
type GistConfig struct {
	Token string `toml:"token"` // GitHub token with gist scope; usually from GIST_TOKEN
}

// QueueConfig controls queue naming conventions
type QueueConfig struct {
	DefaultName       string `toml:"default_name" validate:"required"`
	FileExtension     string `toml:"file_extension" validate:"required"`
	DescriptionPrefix string `toml:"description_prefix" validate:"required"`
}

// APIConfig controls transport-level retry and pacing for the gist client.
// This is separate from the conflict-retry loop in the concurrency layer.
type APIConfig struct {
	RetryCount int           `toml:"retry_count" validate:"min=1"`
	RetryDelay time.Duration `toml:"retry_delay" validate:"min=0"`
	RateLimit  time.Duration `toml:"rate_limit" validate:"min=0"` // minimum spacing between API calls; 0 disables pacing
}

// CleanupConfig controls the retention sweeper
type CleanupConfig struct {
	ThresholdDays int           `toml:"threshold_days" validate:"min=0"`
	Interval      time.Duration `toml:"interval" validate:"min=1s"`
	Schedule      string        `toml:"schedule"` // optional cron expression; overrides Interval when set
	AutoStart     bool          `toml:"auto_start"`
}

// ConcurrencyConfig controls the optimistic-concurrency retry loop
type ConcurrencyConfig struct {
	MaxRetries     int           `toml:"max_retries" validate:"min=1"`
	RetryDelayBase time.Duration `toml:"retry_delay_base" validate:"min=0"`
	RetryDelayMax  time.Duration `toml:"retry_delay_max" validate:"min=0"`
	JitterFactor   float64       `toml:"jitter_factor" validate:"gte=0,lte=1"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Queue: QueueConfig{
			DefaultName:       "default",
			FileExtension:     "json",
			DescriptionPrefix: "Queue:",
		},
		API: APIConfig{
			RetryCount: 3,
			RetryDelay: 1 * time.Second,
			RateLimit:  0,
		},
		Cleanup: CleanupConfig{
			ThresholdDays: 1,
			Interval:      3600 * time.Second,
			AutoStart:     false,
		},
		Concurrency: ConcurrencyConfig{
			MaxRetries:     3,
			RetryDelayBase: 1 * time.Second,
			RetryDelayMax:  5 * time.Second,
			JitterFactor:   0.1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration with layered precedence:
// defaults -> config files (later files override earlier) -> environment.
// A .env file in the working directory is loaded into the environment first.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Ignore a missing .env; only explicit config files are required to exist
	_ = godotenv.Load()

	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides. The variable
// names match the original tool's environment contract, so delay values are
// numeric seconds rather than Go duration strings.
func applyEnvOverrides(config *Config) {
	if token := os.Getenv("GIST_TOKEN"); token != "" {
		config.Gist.Token = token
	}

	if name := os.Getenv("DEFAULT_QUEUE_NAME"); name != "" {
		config.Queue.DefaultName = name
	}
	if ext := os.Getenv("DEFAULT_FILE_EXTENSION"); ext != "" {
		config.Queue.FileExtension = ext
	}
	if prefix := os.Getenv("GIST_DESCRIPTION_PREFIX"); prefix != "" {
		config.Queue.DescriptionPrefix = prefix
	}

	if count := os.Getenv("API_RETRY_COUNT"); count != "" {
		if v, err := strconv.Atoi(count); err == nil {
			config.API.RetryCount = v
		}
	}
	if delay := os.Getenv("API_RETRY_DELAY"); delay != "" {
		if d, ok := parseSeconds(delay); ok {
			config.API.RetryDelay = d
		}
	}

	if days := os.Getenv("CLEANUP_THRESHOLD_DAYS"); days != "" {
		if v, err := strconv.Atoi(days); err == nil {
			config.Cleanup.ThresholdDays = v
		}
	}
	if interval := os.Getenv("CLEANUP_INTERVAL_SECONDS"); interval != "" {
		if d, ok := parseSeconds(interval); ok {
			config.Cleanup.Interval = d
		}
	}
	if schedule := os.Getenv("CLEANUP_SCHEDULE"); schedule != "" {
		config.Cleanup.Schedule = schedule
	}
	if autoStart := os.Getenv("CLEANUP_AUTO_START"); autoStart != "" {
		if v, err := strconv.ParseBool(autoStart); err == nil {
			config.Cleanup.AutoStart = v
		}
	}

	if retries := os.Getenv("CONCURRENCY_MAX_RETRIES"); retries != "" {
		if v, err := strconv.Atoi(retries); err == nil {
			config.Concurrency.MaxRetries = v
		}
	}
	if base := os.Getenv("CONCURRENCY_RETRY_DELAY_BASE"); base != "" {
		if d, ok := parseSeconds(base); ok {
			config.Concurrency.RetryDelayBase = d
		}
	}
	if max := os.Getenv("CONCURRENCY_RETRY_DELAY_MAX"); max != "" {
		if d, ok := parseSeconds(max); ok {
			config.Concurrency.RetryDelayMax = d
		}
	}
	if jitter := os.Getenv("CONCURRENCY_JITTER_FACTOR"); jitter != "" {
		if v, err := strconv.ParseFloat(jitter, 64); err == nil {
			config.Concurrency.JitterFactor = v
		}
	}

	if level := os.Getenv("GISTQUEUE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// parseSeconds converts a numeric seconds value ("1", "2.5") to a duration
func parseSeconds(s string) (time.Duration, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return time.Duration(v * float64(time.Second)), true
}
