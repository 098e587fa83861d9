package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rpggio/assetguard/internal/domain/user"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Quota     QuotaConfig     `yaml:"quota"`
	Registry  RegistryConfig  `yaml:"registry"`
	Events    EventsConfig    `yaml:"events"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
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

// TransportConfig selects between the HTTP router and MCP over stdio.
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// AuthConfig controls bearer-token authentication. When disabled every
// request acts as DefaultUser.
type AuthConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DefaultUser string `yaml:"default_user"`
}

// QuotaConfig holds the per-user message cap used when no global config
// record has been stored yet.
type QuotaConfig struct {
	DefaultMaxMessages int `yaml:"default_max_messages"`
}

type RegistryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// EventsConfig enables publishing domain events to NATS. An empty URL
// disables publishing.
type EventsConfig struct {
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// ReconcileConfig schedules periodic conflict reconciliation. Zero means
// reconciliation only runs on demand.
type ReconcileConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "assetguard.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled:     true,
			DefaultUser: "local",
		},
		Quota: QuotaConfig{
			DefaultMaxMessages: 10,
		},
		Registry: RegistryConfig{
			MaxAttempts: 5,
		},
		Events: EventsConfig{
			SubjectPrefix: "assetguard",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("ASSETGUARD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("ASSETGUARD_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("ASSETGUARD_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ASSETGUARD_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("ASSETGUARD_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("ASSETGUARD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if mode := os.Getenv("ASSETGUARD_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("ASSETGUARD_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ASSETGUARD_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if maxStr := os.Getenv("ASSETGUARD_QUOTA_DEFAULT_MAX"); maxStr != "" {
		v, err := strconv.Atoi(maxStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ASSETGUARD_QUOTA_DEFAULT_MAX: %w", err)
		}
		cfg.Quota.DefaultMaxMessages = v
	}
	if url := os.Getenv("ASSETGUARD_NATS_URL"); url != "" {
		cfg.Events.NATSURL = url
	}
	if prefix := os.Getenv("ASSETGUARD_NATS_SUBJECT_PREFIX"); prefix != "" {
		cfg.Events.SubjectPrefix = prefix
	}
	if interval := os.Getenv("ASSETGUARD_RECONCILE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ASSETGUARD_RECONCILE_INTERVAL: %w", err)
		}
		cfg.Reconcile.Interval = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the services cannot run with.
func (c Config) Validate() error {
	if c.Quota.DefaultMaxMessages <= 0 {
		return errors.New("quota.default_max_messages must be positive")
	}
	if c.Registry.MaxAttempts <= 0 {
		return errors.New("registry.max_attempts must be positive")
	}
	if c.Reconcile.Interval < 0 {
		return errors.New("reconcile.interval must not be negative")
	}
	if _, err := user.NormalizeID(c.Auth.DefaultUser); err != nil {
		return fmt.Errorf("auth.default_user %q is not a usable account id", c.Auth.DefaultUser)
	}
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("unknown transport mode %q", c.Transport.Mode)
	}
	return nil
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
