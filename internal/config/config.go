// Package config loads and validates the synthesis service configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds API server configuration
type ServerConfig struct {
	NodeID          string        `yaml:"node_id"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// SynthesisConfig holds rendering configuration
type SynthesisConfig struct {
	TrackFPS           int           `yaml:"track_fps"`
	JobTimeout         time.Duration `yaml:"job_timeout"`
	MaxDurationSeconds float64       `yaml:"max_duration_seconds"`
	MaxSampleRate      float64       `yaml:"max_sample_rate"`
	MaxHydrophones     int           `yaml:"max_hydrophones"`
	MaxShips           int           `yaml:"max_ships"`
	MaxDraftMeters     float64       `yaml:"max_draft_meters"`
}

// DatasetConfig holds dataset storage configuration
type DatasetConfig struct {
	Root              string        `yaml:"root"`
	CheckInterval     time.Duration `yaml:"check_interval"`
	WarningThreshold  float64       `yaml:"warning_threshold"`
	ThrottleThreshold float64       `yaml:"throttle_threshold"`
	StopThreshold     float64       `yaml:"stop_threshold"`
}

// WorkersConfig holds render pool configuration
type WorkersConfig struct {
	MaxWorkers int `yaml:"max_workers"`
	QueueSize  int `yaml:"queue_size"`
}

// RateLimiterConfig holds API rate limiter configuration
type RateLimiterConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// GossipConfig holds gossip protocol configuration
type GossipConfig struct {
	Enabled        bool          `yaml:"enabled"`
	BindPort       int           `yaml:"bind_port"`
	SeedNodes      []string      `yaml:"seed_nodes"`
	GossipInterval time.Duration `yaml:"gossip_interval"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	ProbeInterval  time.Duration `yaml:"probe_interval"`
}

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config represents the complete configuration of the synthesis service
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Synthesis   SynthesisConfig   `yaml:"synthesis"`
	Dataset     DatasetConfig     `yaml:"dataset"`
	Workers     WorkersConfig     `yaml:"workers"`
	RateLimiter RateLimiterConfig `yaml:"rate_limiter"`
	Gossip      GossipConfig      `yaml:"gossip"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoadConfig loads configuration from a file
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for unspecified configuration
func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 25 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}

	if cfg.Synthesis.TrackFPS == 0 {
		cfg.Synthesis.TrackFPS = 10
	}
	if cfg.Synthesis.JobTimeout == 0 {
		cfg.Synthesis.JobTimeout = 10 * time.Minute
	}
	if cfg.Synthesis.MaxDurationSeconds == 0 {
		cfg.Synthesis.MaxDurationSeconds = 600
	}
	if cfg.Synthesis.MaxSampleRate == 0 {
		cfg.Synthesis.MaxSampleRate = 192000
	}
	if cfg.Synthesis.MaxHydrophones == 0 {
		cfg.Synthesis.MaxHydrophones = 64
	}
	if cfg.Synthesis.MaxShips == 0 {
		cfg.Synthesis.MaxShips = 32
	}
	if cfg.Synthesis.MaxDraftMeters == 0 {
		cfg.Synthesis.MaxDraftMeters = 10
	}

	if cfg.Dataset.Root == "" {
		cfg.Dataset.Root = "/var/lib/synthesis/runs"
	}
	if cfg.Dataset.CheckInterval == 0 {
		cfg.Dataset.CheckInterval = 10 * time.Second
	}
	if cfg.Dataset.WarningThreshold == 0 {
		cfg.Dataset.WarningThreshold = 80
	}
	if cfg.Dataset.ThrottleThreshold == 0 {
		cfg.Dataset.ThrottleThreshold = 90
	}
	if cfg.Dataset.StopThreshold == 0 {
		cfg.Dataset.StopThreshold = 95
	}

	if cfg.Workers.QueueSize == 0 {
		cfg.Workers.QueueSize = 32
	}

	if cfg.RateLimiter.RequestsPerSecond == 0 {
		cfg.RateLimiter.RequestsPerSecond = 50
	}
	if cfg.RateLimiter.BurstSize == 0 {
		cfg.RateLimiter.BurstSize = 100
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.NodeID == "" {
		return fmt.Errorf("server.node_id is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be between 1 and 65535")
	}
	if c.Dataset.StopThreshold <= c.Dataset.ThrottleThreshold {
		return fmt.Errorf("dataset.stop_threshold must be above dataset.throttle_threshold")
	}
	if c.Synthesis.MaxDurationSeconds <= 0 {
		return fmt.Errorf("synthesis.max_duration_seconds must be positive")
	}
	if c.Synthesis.TrackFPS < 1 {
		return fmt.Errorf("synthesis.track_fps must be at least 1")
	}
	return nil
}
