package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	DefaultListenAddr    = "localhost:8888"
	DefaultTickRate      = 60
	DefaultSendQueueSize = 100
	DefaultMaxLineBytes  = 4096
	minLineBytes         = 16
)

// Config holds all server configuration
type Config struct {
	// Server
	ListenAddr    string
	SpectatorAddr string // empty disables the spectator feed

	// Game loop
	TickRate int // ticks per second

	// Sessions
	SendQueueSize    int
	HandshakeTimeout time.Duration // zero waits forever
	IdleTimeout      time.Duration // zero waits forever
	RecycleSlots     bool
	MaxLineBytes     int

	LogLevel string
}

// fileConfig mirrors Config for YAML files. Durations are strings ("5s").
type fileConfig struct {
	ListenAddr       *string `yaml:"listen_addr"`
	SpectatorAddr    *string `yaml:"spectator_addr"`
	TickRate         *int    `yaml:"tick_rate"`
	SendQueueSize    *int    `yaml:"send_queue_size"`
	HandshakeTimeout *string `yaml:"handshake_timeout"`
	IdleTimeout      *string `yaml:"idle_timeout"`
	RecycleSlots     *bool   `yaml:"recycle_slots"`
	MaxLineBytes     *int    `yaml:"max_line_bytes"`
	LogLevel         *string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:    DefaultListenAddr,
		TickRate:      DefaultTickRate,
		SendQueueSize: DefaultSendQueueSize,
		MaxLineBytes:  DefaultMaxLineBytes,
		LogLevel:      "info",
	}
}

// TickInterval is the wall-clock duration of one tick.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// Load builds a Config from defaults, then the YAML file at path (if not
// empty), then the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.ListenAddr != nil {
		c.ListenAddr = *fc.ListenAddr
	}
	if fc.SpectatorAddr != nil {
		c.SpectatorAddr = *fc.SpectatorAddr
	}
	if fc.TickRate != nil {
		c.TickRate = *fc.TickRate
	}
	if fc.SendQueueSize != nil {
		c.SendQueueSize = *fc.SendQueueSize
	}
	if fc.RecycleSlots != nil {
		c.RecycleSlots = *fc.RecycleSlots
	}
	if fc.MaxLineBytes != nil {
		c.MaxLineBytes = *fc.MaxLineBytes
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.HandshakeTimeout != nil {
		d, err := time.ParseDuration(*fc.HandshakeTimeout)
		if err != nil {
			return fmt.Errorf("handshake_timeout: %w", err)
		}
		c.HandshakeTimeout = d
	}
	if fc.IdleTimeout != nil {
		d, err := time.ParseDuration(*fc.IdleTimeout)
		if err != nil {
			return fmt.Errorf("idle_timeout: %w", err)
		}
		c.IdleTimeout = d
	}

	return nil
}

func (c *Config) applyEnv() error {
	c.ListenAddr = getEnv("PONG_LISTEN_ADDR", c.ListenAddr)
	c.SpectatorAddr = getEnv("PONG_SPECTATOR_ADDR", c.SpectatorAddr)
	c.TickRate = getEnvInt("PONG_TICK_RATE", c.TickRate)
	c.SendQueueSize = getEnvInt("PONG_SEND_QUEUE", c.SendQueueSize)
	c.MaxLineBytes = getEnvInt("PONG_MAX_LINE_BYTES", c.MaxLineBytes)
	c.RecycleSlots = getEnvBool("PONG_RECYCLE_SLOTS", c.RecycleSlots)
	c.LogLevel = getEnv("PONG_LOG_LEVEL", c.LogLevel)

	var err error
	if c.HandshakeTimeout, err = getEnvDuration("PONG_HANDSHAKE_TIMEOUT", c.HandshakeTimeout); err != nil {
		return err
	}
	if c.IdleTimeout, err = getEnvDuration("PONG_IDLE_TIMEOUT", c.IdleTimeout); err != nil {
		return err
	}

	return nil
}

// RegisterFlags binds command-line flags that override the loaded values.
// Call fs.Parse afterwards.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ListenAddr, "addr", c.ListenAddr, "TCP address for players")
	fs.StringVar(&c.SpectatorAddr, "spectator-addr", c.SpectatorAddr, "HTTP address for the spectator feed (empty disables)")
	fs.IntVar(&c.TickRate, "tick-rate", c.TickRate, "simulation ticks per second")
	fs.IntVar(&c.SendQueueSize, "send-queue", c.SendQueueSize, "per-session outbound queue length")
	fs.DurationVar(&c.HandshakeTimeout, "handshake-timeout", c.HandshakeTimeout, "max wait for a player name (0 = forever)")
	fs.DurationVar(&c.IdleTimeout, "idle-timeout", c.IdleTimeout, "max wait between player commands (0 = forever)")
	fs.BoolVar(&c.RecycleSlots, "recycle-slots", c.RecycleSlots, "return a position to the pool when its player leaves")
	fs.IntVar(&c.MaxLineBytes, "max-line", c.MaxLineBytes, "max bytes per protocol line")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
}

// Validate ensures configuration is coherent
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %d", c.TickRate)
	}
	if c.SendQueueSize <= 0 {
		return fmt.Errorf("send queue size must be positive, got %d", c.SendQueueSize)
	}
	if c.MaxLineBytes < minLineBytes {
		return fmt.Errorf("max line bytes must be at least %d, got %d", minLineBytes, c.MaxLineBytes)
	}
	if c.HandshakeTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
