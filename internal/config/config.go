package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Lock     LockConfig     `yaml:"lock"`
	Presence PresenceConfig `yaml:"presence"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// LockConfig controls the organize lock. The TTL bounds how long a crashed
// holder can block other users.
type LockConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// PresenceConfig controls collaborator presence. The window should be about
// 1.5x the client heartbeat interval; the cleanup interval bounds storage
// growth and may be zero to disable pruning entirely.
type PresenceConfig struct {
	WindowSeconds          int `yaml:"window_seconds"`
	CleanupIntervalSeconds int `yaml:"cleanup_interval_seconds"`
}

// TTL returns the lock lifetime as a duration.
func (c LockConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Window returns the presence recency window as a duration.
func (c PresenceConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// CleanupInterval returns the presence pruning cadence; zero disables it.
func (c PresenceConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "tidyboard.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Lock: LockConfig{
			TTLSeconds: 60,
		},
		Presence: PresenceConfig{
			WindowSeconds:          90,
			CleanupIntervalSeconds: 0,
		},
	}

	if path := os.Getenv("TIDYBOARD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("TIDYBOARD_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("TIDYBOARD_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TIDYBOARD_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("TIDYBOARD_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("TIDYBOARD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if ttlStr := os.Getenv("TIDYBOARD_LOCK_TTL"); ttlStr != "" {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TIDYBOARD_LOCK_TTL: %w", err)
		}
		cfg.Lock.TTLSeconds = ttl
	}
	if windowStr := os.Getenv("TIDYBOARD_PRESENCE_WINDOW"); windowStr != "" {
		window, err := strconv.Atoi(windowStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TIDYBOARD_PRESENCE_WINDOW: %w", err)
		}
		cfg.Presence.WindowSeconds = window
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
