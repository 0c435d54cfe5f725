package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	Model    ModelConfig    `yaml:"model"`
	Routing  RoutingConfig  `yaml:"routing"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type ModelConfig struct {
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type RoutingConfig struct {
	TieBreakThreshold  float64 `yaml:"tie_break_threshold"`
	ScoreWorkers       int     `yaml:"score_workers"`
	PairTimeoutMs      int     `yaml:"pair_timeout_ms"`
	WaitTickIntervalMs int     `yaml:"wait_tick_interval_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.Model.TimeoutMs) * time.Millisecond
}

func (c *Config) PairTimeout() time.Duration {
	return time.Duration(c.Routing.PairTimeoutMs) * time.Millisecond
}

func (c *Config) WaitTickInterval() time.Duration {
	return time.Duration(c.Routing.WaitTickIntervalMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		NATS: NATSConfig{
			URL: "nats://localhost:4222",
		},
		Model: ModelConfig{
			URL:       "http://localhost:8090",
			TimeoutMs: 5000,
		},
		Routing: RoutingConfig{
			TieBreakThreshold:  0.03,
			ScoreWorkers:       8,
			PairTimeoutMs:      2000,
			WaitTickIntervalMs: 10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("QR_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("QR_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("QR_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("QR_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("QR_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("QR_NATS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.NATS.Enabled = b
		}
	}
	if v := os.Getenv("QR_MODEL_URL"); v != "" {
		cfg.Model.URL = v
	}
	if v := os.Getenv("QR_MODEL_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Model.TimeoutMs = n
		}
	}
	if v := os.Getenv("QR_TIE_BREAK_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Routing.TieBreakThreshold = f
		}
	}
	if v := os.Getenv("QR_SCORE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Routing.ScoreWorkers = n
		}
	}
	if v := os.Getenv("QR_PAIR_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Routing.PairTimeoutMs = n
		}
	}
	if v := os.Getenv("QR_WAIT_TICK_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Routing.WaitTickIntervalMs = n
		}
	}
	if v := os.Getenv("QR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
