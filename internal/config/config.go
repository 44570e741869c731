package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported limiter algorithms.
const (
	AlgorithmFixedWindow   = "fixed_window"
	AlgorithmSlidingWindow = "sliding_window"
	AlgorithmTokenBucket   = "token_bucket"
)

// Config is the demo server's configuration.
type Config struct {
	Listen     string
	Redis      Redis
	Limiter    Limiter
	HeaderKeys []string
}

// Redis holds the connection settings for the backing store.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Limiter selects the algorithm and its parameters.
type Limiter struct {
	Algorithm string
	Prefix    string

	// Window algorithms.
	MaxRequests int64
	Window      time.Duration

	// Token bucket.
	MaxTokens  int64
	RefillRate int64
	Interval   time.Duration
}

// fileConfig mirrors the YAML layout. Durations are strings in the
// file ("1m", "500ms") and parsed during Load.
type fileConfig struct {
	Listen string `yaml:"listen"`
	Redis  struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Limiter struct {
		Algorithm   string `yaml:"algorithm"`
		Prefix      string `yaml:"prefix"`
		MaxRequests int64  `yaml:"max_requests"`
		Window      string `yaml:"window"`
		MaxTokens   int64  `yaml:"max_tokens"`
		RefillRate  int64  `yaml:"refill_rate"`
		Interval    string `yaml:"interval"`
	} `yaml:"limiter"`
	HeaderKeys []string `yaml:"header_keys"`
}

// Load reads a YAML config file, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{
		Listen: envString("RATELIMIT_LISTEN", raw.Listen),
		Redis: Redis{
			Addr:     envString("RATELIMIT_REDIS_ADDR", raw.Redis.Addr),
			Password: envString("RATELIMIT_REDIS_PASSWORD", raw.Redis.Password),
			DB:       raw.Redis.DB,
		},
		Limiter: Limiter{
			Algorithm:   envString("RATELIMIT_ALGORITHM", raw.Limiter.Algorithm),
			Prefix:      envString("RATELIMIT_PREFIX", raw.Limiter.Prefix),
			MaxRequests: envInt64("RATELIMIT_MAX_REQUESTS", raw.Limiter.MaxRequests),
			MaxTokens:   envInt64("RATELIMIT_MAX_TOKENS", raw.Limiter.MaxTokens),
			RefillRate:  envInt64("RATELIMIT_REFILL_RATE", raw.Limiter.RefillRate),
		},
		HeaderKeys: raw.HeaderKeys,
	}

	cfg.Limiter.Window, err = parseDuration(raw.Limiter.Window)
	if err != nil {
		return nil, fmt.Errorf("parse limiter window: %w", err)
	}
	cfg.Limiter.Window = envDuration("RATELIMIT_WINDOW", cfg.Limiter.Window)

	cfg.Limiter.Interval, err = parseDuration(raw.Limiter.Interval)
	if err != nil {
		return nil, fmt.Errorf("parse limiter interval: %w", err)
	}
	cfg.Limiter.Interval = envDuration("RATELIMIT_INTERVAL", cfg.Limiter.Interval)

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	return time.ParseDuration(value)
}

func applyDefaults(cfg *Config) {
	if cfg.Listen == "" {
		cfg.Listen = "localhost:8080"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Limiter.Prefix == "" {
		cfg.Limiter.Prefix = "ratelimit"
	}
	if len(cfg.HeaderKeys) == 0 {
		cfg.HeaderKeys = []string{"X-Forwarded-For"}
	}
}

func validate(cfg *Config) error {
	switch cfg.Limiter.Algorithm {
	case AlgorithmFixedWindow, AlgorithmSlidingWindow:
		if cfg.Limiter.MaxRequests <= 0 {
			return fmt.Errorf("limiter max_requests must be positive, got %d", cfg.Limiter.MaxRequests)
		}
		if cfg.Limiter.Window <= 0 {
			return fmt.Errorf("limiter window must be positive, got %s", cfg.Limiter.Window)
		}
	case AlgorithmTokenBucket:
		if cfg.Limiter.MaxTokens <= 0 {
			return fmt.Errorf("limiter max_tokens must be positive, got %d", cfg.Limiter.MaxTokens)
		}
		if cfg.Limiter.RefillRate <= 0 {
			return fmt.Errorf("limiter refill_rate must be positive, got %d", cfg.Limiter.RefillRate)
		}
		if cfg.Limiter.Interval <= 0 {
			return fmt.Errorf("limiter interval must be positive, got %s", cfg.Limiter.Interval)
		}
	case "":
		return fmt.Errorf("limiter algorithm is required")
	default:
		return fmt.Errorf("unknown limiter algorithm: %s", cfg.Limiter.Algorithm)
	}
	return nil
}
