// Package config defines all configuration for the order book
// synchronization engine. Config is loaded from a YAML file (default:
// configs/config.yaml) with fields overridable via DEPTHSYNC_* environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file
// structure: one Place entry per venue/platform the engine connects to.
type Config struct {
	Places  []PlaceConfig `mapstructure:"places"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PlaceConfig configures one venue/platform and the pairs it tracks there.
type PlaceConfig struct {
	Exchange string       `mapstructure:"exchange"`
	Platform string       `mapstructure:"platform"`
	Pairs    []PairConfig `mapstructure:"pairs"`
	System   SystemConfig `mapstructure:"system"`
}

// PairConfig names one trading pair to track at a Place.
type PairConfig struct {
	Base  string `mapstructure:"base"`
	Quote string `mapstructure:"quote"`
}

// SystemConfig tunes the operational parameters of a Place's connections.
//
//   - BookCapacity: depth kept per side of every book.
//   - StreamsPerConnection: how many pair streams share one socket.
//   - ReconnectDelay: base backoff after a dropped connection.
//   - SnapshotRetryDelay: delay between failed REST snapshot attempts.
//   - UpdateSpeed: venue diff-stream cadence, "100ms" or "1000ms".
//   - MaxLatency: elapsed-since-event-time above this logs a warning.
//   - LatencyCheckInterval: how often the latency meter aggregates and logs.
//   - MaxLatencyError: clock-skew tolerance before an event is logged as an error.
type SystemConfig struct {
	BookCapacity         int           `mapstructure:"book_capacity"`
	StreamsPerConnection int           `mapstructure:"streams_per_connection"`
	ReconnectDelay       time.Duration `mapstructure:"reconnect_delay"`
	SnapshotRetryDelay   time.Duration `mapstructure:"snapshot_retry_delay"`
	UpdateSpeed          string        `mapstructure:"update_speed"`
	MaxLatency           time.Duration `mapstructure:"max_latency"`
	LatencyCheckInterval time.Duration `mapstructure:"latency_check_interval"`
	MaxLatencyError      time.Duration `mapstructure:"max_latency_error"`
}

// LoggingConfig controls the engine's structured logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultSystemConfig mirrors the venue defaults hardcoded upstream for
// Binance Spot: 128 streams per connection, 1s reconnect delay, "1000ms"
// book update speed, 5s/1s/100ms latency parameters.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		BookCapacity:         100,
		StreamsPerConnection: 128,
		ReconnectDelay:       time.Second,
		SnapshotRetryDelay:   time.Second,
		UpdateSpeed:          "1000ms",
		MaxLatency:           5 * time.Second,
		LatencyCheckInterval: time.Second,
		MaxLatencyError:      100 * time.Millisecond,
	}
}

// SystemConfigOption is a functional option for building a SystemConfig off
// of DefaultSystemConfig — the idiomatic Go stand-in for the fluent
// #[must_use] builder setters used upstream.
type SystemConfigOption func(*SystemConfig)

// WithBookCapacity overrides the per-side depth kept for every book.
func WithBookCapacity(n int) SystemConfigOption {
	return func(c *SystemConfig) { c.BookCapacity = n }
}

// WithStreamsPerConnection overrides how many pair streams share one socket.
func WithStreamsPerConnection(n int) SystemConfigOption {
	return func(c *SystemConfig) { c.StreamsPerConnection = n }
}

// WithReconnectDelay overrides the base reconnect backoff.
func WithReconnectDelay(d time.Duration) SystemConfigOption {
	return func(c *SystemConfig) { c.ReconnectDelay = d }
}

// WithLatencyThresholds overrides the warning and error latency thresholds.
func WithLatencyThresholds(warn, clockSkew time.Duration) SystemConfigOption {
	return func(c *SystemConfig) {
		c.MaxLatency = warn
		c.MaxLatencyError = clockSkew
	}
}

// NewSystemConfig builds a SystemConfig from the defaults with the given
// options applied in order.
func NewSystemConfig(opts ...SystemConfigOption) SystemConfig {
	cfg := DefaultSystemConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Load reads config from a YAML file with DEPTHSYNC_* environment overrides
// for logging (DEPTHSYNC_LOGGING_LEVEL, DEPTHSYNC_LOGGING_FORMAT).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("DEPTHSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	for i := range cfg.Places {
		fillSystemDefaults(&cfg.Places[i].System)
	}

	return &cfg, nil
}

// fillSystemDefaults backfills zero-valued fields from DefaultSystemConfig
// so a config file only needs to name the overrides it cares about.
func fillSystemDefaults(s *SystemConfig) {
	d := DefaultSystemConfig()
	if s.BookCapacity == 0 {
		s.BookCapacity = d.BookCapacity
	}
	if s.StreamsPerConnection == 0 {
		s.StreamsPerConnection = d.StreamsPerConnection
	}
	if s.ReconnectDelay == 0 {
		s.ReconnectDelay = d.ReconnectDelay
	}
	if s.SnapshotRetryDelay == 0 {
		s.SnapshotRetryDelay = d.SnapshotRetryDelay
	}
	if s.UpdateSpeed == "" {
		s.UpdateSpeed = d.UpdateSpeed
	}
	if s.MaxLatency == 0 {
		s.MaxLatency = d.MaxLatency
	}
	if s.LatencyCheckInterval == 0 {
		s.LatencyCheckInterval = d.LatencyCheckInterval
	}
	if s.MaxLatencyError == 0 {
		s.MaxLatencyError = d.MaxLatencyError
	}
}

// Validate checks all required fields.
func (c *Config) Validate() error {
	if len(c.Places) == 0 {
		return fmt.Errorf("at least one entry under places is required")
	}
	for i, p := range c.Places {
		if p.Exchange == "" {
			return fmt.Errorf("places[%d].exchange is required", i)
		}
		if p.Platform == "" {
			return fmt.Errorf("places[%d].platform is required", i)
		}
		if len(p.Pairs) == 0 {
			return fmt.Errorf("places[%d].pairs must not be empty", i)
		}
		if p.System.BookCapacity <= 0 {
			return fmt.Errorf("places[%d].system.book_capacity must be > 0", i)
		}
		if p.System.StreamsPerConnection <= 0 {
			return fmt.Errorf("places[%d].system.streams_per_connection must be > 0", i)
		}
		switch p.System.UpdateSpeed {
		case "100ms", "1000ms":
		default:
			return fmt.Errorf("places[%d].system.update_speed must be \"100ms\" or \"1000ms\"", i)
		}
	}
	return nil
}
