// Package config provides configuration for the zencall engine.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration for the zencall engine
type Config struct {
	// Engine configuration
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Quality thresholds for the poor-connection signal
	Quality QualityConfig `json:"quality" yaml:"quality"`

	// Backend configuration (WebSocket call backend)
	Backend BackendConfig `json:"backend" yaml:"backend"`

	// Redis configuration for the profile cache
	Redis RedisConfig `json:"redis" yaml:"redis"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// EngineConfig holds engine-related configuration
type EngineConfig struct {
	// EventBuffer is the size of the engine's event queue
	EventBuffer int `json:"event_buffer" yaml:"event_buffer"`

	// CountdownTick is the interval between call-will-end ticks
	CountdownTick time.Duration `json:"countdown_tick" yaml:"countdown_tick"`

	// WaitingThreshold is the remaining-countdown value below which
	// the waiting-for-others banner takes priority over alone-in-call
	WaitingThreshold time.Duration `json:"waiting_threshold" yaml:"waiting_threshold"`

	// DefaultLayout is the layout mode used when a call is bound ("grid" or "speaker")
	DefaultLayout string `json:"default_layout" yaml:"default_layout"`
}

// QualityConfig holds network quality thresholds
type QualityConfig struct {
	// PacketLossPoor is the packet loss percentage treated as a poor connection
	PacketLossPoor float64 `json:"packet_loss_poor" yaml:"packet_loss_poor"`

	// RTTPoor is the round-trip time treated as a poor connection
	RTTPoor time.Duration `json:"rtt_poor" yaml:"rtt_poor"`

	// JitterPoor is the jitter treated as a poor connection
	JitterPoor time.Duration `json:"jitter_poor" yaml:"jitter_poor"`

	// MinBandwidth is the minimum acceptable bandwidth in bits/sec
	MinBandwidth int `json:"min_bandwidth" yaml:"min_bandwidth"`
}

// BackendConfig holds call backend connection configuration
type BackendConfig struct {
	// URL is the WebSocket endpoint of the call backend
	URL string `json:"url" yaml:"url"`

	// HandshakeTimeout is the maximum duration for the WebSocket handshake
	HandshakeTimeout time.Duration `json:"handshake_timeout" yaml:"handshake_timeout"`

	// WriteTimeout is the maximum duration before timing out writes
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// PingInterval is the interval between keepalive pings
	PingInterval time.Duration `json:"ping_interval" yaml:"ping_interval"`

	// MaxReconnectAttempts is the maximum number of reconnection attempts
	MaxReconnectAttempts int `json:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`

	// ReconnectDelay is the initial delay before the first reconnection attempt
	ReconnectDelay time.Duration `json:"reconnect_delay" yaml:"reconnect_delay"`

	// MaxReconnectDelay is the maximum delay between reconnection attempts
	MaxReconnectDelay time.Duration `json:"max_reconnect_delay" yaml:"max_reconnect_delay"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	// Addr is the Redis server address
	Addr string `json:"addr" yaml:"addr"`

	// Password is the Redis password (empty = no auth)
	Password string `json:"password" yaml:"password"`

	// DB is the Redis database number
	DB int `json:"db" yaml:"db"`

	// ProfileTTL is how long resolved profiles stay cached
	ProfileTTL time.Duration `json:"profile_ttl" yaml:"profile_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `json:"level" yaml:"level"`

	// Format is the log output format (json or text)
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			EventBuffer:      256,
			CountdownTick:    time.Minute,
			WaitingThreshold: 2 * time.Minute,
			DefaultLayout:    "grid",
		},
		Quality: QualityConfig{
			PacketLossPoor: 10.0,
			RTTPoor:        500 * time.Millisecond,
			JitterPoor:     100 * time.Millisecond,
			MinBandwidth:   300_000,
		},
		Backend: BackendConfig{
			URL:                  "ws://localhost:8080/call",
			HandshakeTimeout:     10 * time.Second,
			WriteTimeout:         5 * time.Second,
			PingInterval:         30 * time.Second,
			MaxReconnectAttempts: 5,
			ReconnectDelay:       time.Second,
			MaxReconnectDelay:    30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			ProfileTTL: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a YAML file, applying defaults
// for any field left unset
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Engine.EventBuffer <= 0 {
		return fmt.Errorf("engine.event_buffer must be positive")
	}

	if c.Engine.CountdownTick <= 0 {
		return fmt.Errorf("engine.countdown_tick must be positive")
	}

	if c.Engine.DefaultLayout != "grid" && c.Engine.DefaultLayout != "speaker" {
		return fmt.Errorf("engine.default_layout must be grid or speaker, got %q", c.Engine.DefaultLayout)
	}

	if c.Backend.MaxReconnectAttempts < 0 {
		return fmt.Errorf("backend.max_reconnect_attempts must not be negative")
	}

	return nil
}
