// Package config loads people-finder configuration.
//
// The environment name comes from PEOPLE_ENV (default "development") and
// selects the file config/people-finder-<env>.yaml. The directory can be
// changed with PEOPLE_CONFIG_DIR.
//
// Before the file is read, .env files are loaded in priority order:
//
//  1. ENV_FILE (if set, loads only this file)
//  2. .env.local (if exists, overrides .env)
//  3. .env
//
// Fields tagged with `env` are then overridden from the environment, so
// PEOPLE_BASE_URL, REDIS_ADDR, LOG_LEVEL and PUSHGATEWAY_URL always win over
// the file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultEnv is used when PEOPLE_ENV is unset.
	DefaultEnv = "development"

	// DefaultDir is used when PEOPLE_CONFIG_DIR is unset.
	DefaultDir = "config"

	defaultTimeout  = time.Second
	defaultMaxDepth = 100
	defaultLogLevel = "info"
)

// Config is the full people-finder configuration.
type Config struct {
	// Env and Path record where the configuration came from.
	Env  string `yaml:"-"`
	Path string `yaml:"-"`

	PeopleService PeopleServiceConfig `yaml:"people_service"`
	Stream        StreamConfig        `yaml:"stream"`
	Redis         RedisConfig         `yaml:"redis"`
	Log           LogConfig           `yaml:"log"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

// PeopleServiceConfig configures the People HTTP client.
type PeopleServiceConfig struct {
	BaseURL           string        `yaml:"base_url" env:"PEOPLE_BASE_URL"`
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	MaxRetries        int           `yaml:"max_retries"`
}

// StreamConfig configures pagination.
type StreamConfig struct {
	MaxDepth       int `yaml:"max_depth"`
	MaxConcurrency int `yaml:"max_concurrency"`
}

// RedisConfig enables the response cache and shared cooldown when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Pretty bool   `yaml:"pretty"`
}

// MetricsConfig configures the end-of-run Pushgateway push.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" env:"PUSHGATEWAY_URL"`
}

// ConfigurationError reports a missing or invalid configuration value.
type ConfigurationError struct {
	Key    string
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Key, e.Reason)
}

// Environment returns the active environment name.
func Environment() string {
	if env := os.Getenv("PEOPLE_ENV"); env != "" {
		return env
	}
	return DefaultEnv
}

// FilePath returns the config file path for env.
func FilePath(env string) string {
	dir := os.Getenv("PEOPLE_CONFIG_DIR")
	if dir == "" {
		dir = DefaultDir
	}
	return filepath.Join(dir, fmt.Sprintf("people-finder-%s.yaml", env))
}

// Load loads .env files, then the environment-selected config file.
func Load(logger zerolog.Logger) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	env := Environment()
	cfg, err := LoadFile(FilePath(env), logger)
	if err != nil {
		return nil, err
	}
	cfg.Env = env
	return cfg, nil
}

// LoadFile reads path and applies defaults and environment overrides.
// A missing file is logged and yields a config built from defaults and
// environment only; Validate then reports what is missing.
func LoadFile(path string, logger zerolog.Logger) (*Config, error) {
	cfg := &Config{Path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Error().Str("path", path).Msg("Config file not found, continuing with empty configuration")
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		logger.Info().Str("path", path).Msg("Config loaded")
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg, nil
}

// Validate checks required values. Every failure is a *ConfigurationError.
func (c *Config) Validate() error {
	if c.PeopleService.BaseURL == "" {
		return &ConfigurationError{Key: "people_service.base_url", Reason: "is required"}
	}
	u, err := url.Parse(c.PeopleService.BaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return &ConfigurationError{Key: "people_service.base_url", Reason: "must be an absolute http(s) URL"}
	}
	if c.PeopleService.Timeout < 0 {
		return &ConfigurationError{Key: "people_service.timeout", Reason: "must not be negative"}
	}
	if c.PeopleService.RequestsPerSecond < 0 {
		return &ConfigurationError{Key: "people_service.requests_per_second", Reason: "must not be negative"}
	}
	if c.Stream.MaxDepth < 1 {
		return &ConfigurationError{Key: "stream.max_depth", Reason: "must be at least 1"}
	}
	if c.Stream.MaxConcurrency < 0 {
		return &ConfigurationError{Key: "stream.max_concurrency", Reason: "must not be negative"}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigurationError{Key: "log.level", Reason: "must be one of: debug, info, warn, error"}
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.PeopleService.Timeout == 0 {
		cfg.PeopleService.Timeout = defaultTimeout
	}
	if cfg.Stream.MaxDepth == 0 {
		cfg.Stream.MaxDepth = defaultMaxDepth
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
}

// loadEnvFiles loads .env files; missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env.local: %w", err)
	}

	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
