// Package config loads the engine configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/compat"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/history"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/navigation"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/requirement"
)

// #region types
// Config is the whole engine configuration.
type Config struct {
	MaxHistoryItems       int `yaml:"max_history_items" validate:"gte=1,lte=200"`
	MinDispatchAttributes int `yaml:"min_dispatch_attributes" validate:"gte=1,lte=3"`

	// Requirements overrides the built-in tables: source -> data type ->
	// accepted presences (none, study, gene, gene+study).
	Requirements map[string]map[string][]string `yaml:"requirements,omitempty"`
	// SplitPairs overrides the built-in split-by pairs.
	SplitPairs [][]string `yaml:"split_pairs,omitempty" validate:"omitempty,dive,len=2"`

	Session  SessionConfig  `yaml:"session"`
	Store    StoreConfig    `yaml:"store"`
	Resolver ResolverConfig `yaml:"resolver"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SessionConfig selects where the working session lives.
type SessionConfig struct {
	Backend   string `yaml:"backend" validate:"oneof=memory redis"`
	RedisAddr string `yaml:"redis_addr" validate:"required_if=Backend redis"`
	TTL       string `yaml:"ttl"`
}

// StoreConfig points at the long-term SQLite store.
type StoreConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// ResolverConfig addresses the entity resolver. An empty address selects
// the literal resolver.
type ResolverConfig struct {
	Addr    string `yaml:"addr"`
	Timeout string `yaml:"timeout"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

type LoggingConfig struct {
	Mode string `yaml:"mode" validate:"oneof=dev prod"`
}

// #endregion types

// #region defaults
// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxHistoryItems:       history.DefaultMaxItems,
		MinDispatchAttributes: navigation.DefaultMinAttributes,
		Session: SessionConfig{
			Backend: "memory",
			TTL:     "24h",
		},
		Store: StoreConfig{
			Path: filepath.Join(".melvin", "melvin.db"),
		},
		Resolver: ResolverConfig{
			Timeout: "3s",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Mode: "dev",
		},
	}
}

// #endregion defaults

// #region load
// Load reads path over the defaults. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MELVIN_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("MELVIN_RESOLVER_ADDR"); v != "" {
		c.Resolver.Addr = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Session.RedisAddr = v
		c.Session.Backend = "redis"
	}
	if v := os.Getenv("MELVIN_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("MELVIN_LOG_MODE"); v != "" {
		c.Logging.Mode = strings.ToLower(v)
	}
}

// #endregion load

// #region validate
var validate = validator.New()

// Validate checks field constraints and that the tables and pairs parse.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.RequirementTables(); err != nil {
		return fmt.Errorf("invalid requirements: %w", err)
	}
	if _, err := c.SplitPairList(); err != nil {
		return fmt.Errorf("invalid split_pairs: %w", err)
	}
	for name, d := range map[string]string{"session.ttl": c.Session.TTL, "resolver.timeout": c.Resolver.Timeout} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// #endregion validate

// #region accessors
// RequirementTables returns the configured tables, or the built-in ones
// when none are set.
func (c *Config) RequirementTables() (requirement.Tables, error) {
	if len(c.Requirements) == 0 {
		return requirement.DefaultTables(), nil
	}
	return requirement.ParseTables(c.Requirements)
}

// SplitPairList returns the configured split pairs, or nil for the
// built-in ones.
func (c *Config) SplitPairList() ([]compat.Pair, error) {
	if len(c.SplitPairs) == 0 {
		return nil, nil
	}
	return compat.ParsePairs(c.SplitPairs)
}

// GetSessionTTL returns the session TTL, 24h when unset or unparsable.
func (c *Config) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Session.TTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// GetResolverTimeout returns the per-call resolver timeout, 3s when unset
// or unparsable.
func (c *Config) GetResolverTimeout() time.Duration {
	d, err := time.ParseDuration(c.Resolver.Timeout)
	if err != nil {
		return 3 * time.Second
	}
	return d
}

// #endregion accessors
