package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/c360/tickfifo/errors"
	"github.com/c360/tickfifo/pkg/fifo"
)

// Config represents the complete application configuration
type Config struct {
	FIFO    FIFOConfig    `json:"fifo"`
	Metrics MetricsConfig `json:"metrics"`
	NATS    NATSConfig    `json:"nats"`
	Runner  RunnerConfig  `json:"runner"`
}

// FIFOConfig carries the buffer parameters.
type FIFOConfig struct {
	Width int `json:"width"`
	Depth int `json:"depth"`
}

// Buffer converts the section into a fifo.Config.
func (f FIFOConfig) Buffer() fifo.Config {
	return fifo.Config{Width: f.Width, Depth: f.Depth}
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port"`
	Path    string `json:"path"`
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URL           string        `json:"url"`
	Subject       string        `json:"subject"`
	MaxReconnects int           `json:"max_reconnects"`
	ReconnectWait time.Duration `json:"reconnect_wait"`
}

// RunnerConfig controls how scenarios are executed.
type RunnerConfig struct {
	Workers  int     `json:"workers"`
	RateHz   float64 `json:"rate_hz"`   // 0 = unthrottled
	MaxTicks int     `json:"max_ticks"` // 0 = unlimited
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	buf := fifo.DefaultConfig()
	return &Config{
		FIFO: FIFOConfig{Width: buf.Width, Depth: buf.Depth},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			Subject:       "tickfifo",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Runner: RunnerConfig{
			Workers: 4,
		},
	}
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = Default()
	}
	return &SafeConfig{
		config: cfg,
	}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "SafeConfig", "Update", "nil config check")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg.Clone()
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return Default()
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}

	return &clone
}

// Validate checks if the config is valid. All failures are classified
// invalid and wrap errors.ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.FIFO.Buffer().Validate(); err != nil {
		return err
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return invalid("metrics.port %d out of range", c.Metrics.Port)
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return invalid("metrics.path %q must start with /", c.Metrics.Path)
		}
	}

	if c.NATS.URL != "" {
		u, err := url.Parse(c.NATS.URL)
		if err != nil || u.Host == "" {
			return invalid("nats.url %q is not a valid URL", c.NATS.URL)
		}
	}
	// Normalize subject to lowercase
	c.NATS.Subject = strings.ToLower(c.NATS.Subject)
	if !isValidNATSSubjectPart(c.NATS.Subject) {
		return invalid(
			"nats.subject %q is not valid for NATS subjects (must be alphanumeric with dots, dashes, underscores)",
			c.NATS.Subject,
		)
	}
	if c.NATS.ReconnectWait < 0 {
		return invalid("nats.reconnect_wait must not be negative")
	}

	if c.Runner.Workers < 1 {
		return invalid("runner.workers must be positive, got %d", c.Runner.Workers)
	}
	if c.Runner.RateHz < 0 {
		return invalid("runner.rate_hz must not be negative")
	}
	if c.Runner.MaxTicks < 0 {
		return invalid("runner.max_ticks must not be negative")
	}

	return nil
}

func invalid(format string, args ...any) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidConfig, fmt.Sprintf(format, args...)),
		"Config", "Validate", "field check")
}

// isValidNATSSubjectPart checks if a string is valid for use in NATS subjects.
// Valid characters are alphanumeric, dots, dashes, and underscores.
func isValidNATSSubjectPart(s string) bool {
	if len(s) == 0 || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '-' && r != '_' && r != '.' {
			return false
		}
	}
	return true
}
