// Package config provides YAML-based configuration loading for the personnel
// approval service.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Env overrides for secrets that should not live in the config file.
const (
	EnvJWTSecret  = "PM_JWT_SECRET"
	EnvRelayToken = "PM_RELAY_TOKEN"
)

// Config is the top-level configuration, loaded from personnel.yaml.
type Config struct {
	Database  DatabaseConfig `yaml:"database"`
	Server    ServerConfig   `yaml:"server"`
	Log       LogConfig      `yaml:"log"`
	Workflow  WorkflowConfig `yaml:"workflow"`
	Reminders ReminderConfig `yaml:"reminders"`
	Relay     RelayConfig    `yaml:"relay"`
}

// DatabaseConfig selects the store. Driver "sqlite" uses Path; "mysql" uses
// the host/port/user/password/name fields.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port       int    `yaml:"port"`
	JWTSecret  string `yaml:"jwt_secret"`
	ReviewPath string `yaml:"review_path"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// WorkflowConfig holds task generation tunables.
type WorkflowConfig struct {
	DefaultSLADays int `yaml:"default_sla_days"`
}

// ReminderConfig controls the scheduled template reminder sweep.
type ReminderConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// RelayConfig controls forwarding of notification records to team chat.
// An empty Platform disables the relay. LinkBase is prepended to
// notification links; Template overrides the rendered message text.
type RelayConfig struct {
	Platform  string        `yaml:"platform"`
	BotToken  string        `yaml:"bot_token"`
	ChannelID string        `yaml:"channel_id"`
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
	LinkBase  string        `yaml:"link_base"`
	Template  string        `yaml:"template"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Server.JWTSecret = v
	}
	if v := os.Getenv(EnvRelayToken); v != "" {
		c.Relay.BotToken = v
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "personnel.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "personnel_management"
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReviewPath == "" {
		c.Server.ReviewPath = "/approvals"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Workflow.DefaultSLADays <= 0 {
		c.Workflow.DefaultSLADays = 5
	}
	if c.Reminders.Schedule == "" {
		c.Reminders.Schedule = "0 8 * * *"
	}
	if c.Relay.Interval <= 0 {
		c.Relay.Interval = time.Minute
	}
	if c.Relay.BatchSize <= 0 {
		c.Relay.BatchSize = 50
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if !strings.HasPrefix(c.Server.ReviewPath, "/") {
		errs = append(errs, "server.review_path must start with /")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if _, err := cron.ParseStandard(c.Reminders.Schedule); err != nil {
		errs = append(errs, fmt.Sprintf("reminders.schedule %q: %v", c.Reminders.Schedule, err))
	}
	switch c.Relay.Platform {
	case "":
	case "slack", "discord":
		if c.Relay.BotToken == "" {
			errs = append(errs, "relay.bot_token is required when relay.platform is set")
		}
		if c.Relay.ChannelID == "" {
			errs = append(errs, "relay.channel_id is required when relay.platform is set")
		}
	default:
		errs = append(errs, fmt.Sprintf("relay.platform %q is not supported (slack, discord)", c.Relay.Platform))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
