// Package config loads Orchestrix's runtime configuration from a YAML
// file, with environment variables overriding individual fields —
// matching spec §6's configuration surface.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the job queue service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Queue    QueueConfig    `yaml:"queue"`
	Logging  LoggingConfig  `yaml:"logging"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

type ServerConfig struct {
	Port            int `yaml:"port"`
	MaxPayloadBytes int `yaml:"max_payload_bytes"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
}

type QueueConfig struct {
	NumWorkers        int `yaml:"num_workers"`
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

type ShutdownConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Defaults mirror spec §6: 10 MiB payloads, 15 db connections, 5
// concurrent jobs, 3 worker loops, logs/ as the log directory.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			MaxPayloadBytes: 10 * 1024 * 1024,
		},
		Database: DatabaseConfig{
			MaxConnections: 15,
		},
		Queue: QueueConfig{
			NumWorkers:        3,
			MaxConcurrentJobs: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Dir:    "logs",
		},
		Shutdown: ShutdownConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads configuration from a YAML file, then applies environment
// variable overrides on top, then validates the result. path may be
// empty, in which case only defaults and environment variables apply.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides maps the environment variables spec §6 names onto
// config fields. DATABASE_URL is required; the rest fall back to
// whatever Load already resolved from the YAML file and defaults.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v, ok := envInt("MAX_PAYLOAD_SIZE"); ok {
		cfg.Server.MaxPayloadBytes = v
	}
	if v, ok := envInt("MAX_DB_CONNECTIONS"); ok {
		cfg.Database.MaxConnections = v
	}
	if v, ok := envInt("MAX_CONCURRENT_JOBS"); ok {
		cfg.Queue.MaxConcurrentJobs = v
	}
	if v, ok := envInt("NUM_WORKERS"); ok {
		cfg.Queue.NumWorkers = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.Logging.Dir = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL (or database.url) must be set")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}

	if c.Server.MaxPayloadBytes <= 0 {
		return fmt.Errorf("server.max_payload_bytes must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	if c.Queue.NumWorkers <= 0 {
		return fmt.Errorf("queue.num_workers must be positive")
	}

	if c.Queue.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("queue.max_concurrent_jobs must be positive")
	}

	if c.Database.MaxConnections < c.Queue.NumWorkers+c.Queue.MaxConcurrentJobs {
		// Not an error per spec §6 ("the operator's responsibility"),
		// but worth a loud warning since it starves the pool.
		fmt.Fprintf(os.Stderr,
			"warning: database.max_connections (%d) is below num_workers+max_concurrent_jobs (%d); this can starve the pool\n",
			c.Database.MaxConnections, c.Queue.NumWorkers+c.Queue.MaxConcurrentJobs)
	}

	if c.Shutdown.Timeout <= 0 {
		return fmt.Errorf("shutdown.timeout must be positive")
	}

	return nil
}
