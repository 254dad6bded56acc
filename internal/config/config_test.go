package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  user: hr
  password: secret
  name: personnel_prod

server:
  port: 9090
  jwt_secret: s3cr3t
  review_path: /review

log:
  level: debug
  development: true

workflow:
  default_sla_days: 7

reminders:
  enabled: true
  schedule: "30 7 * * 1-5"

relay:
  platform: slack
  bot_token: xoxb-123
  channel_id: C01
  interval: 30s
  batch_size: 10
  link_base: https://hr.example.com
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, want mysql", cfg.Database.Driver)
	}
	if cfg.Database.Host != "10.0.0.5" || cfg.Database.Port != 3307 {
		t.Errorf("Database addr = %s:%d, want 10.0.0.5:3307", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.Name != "personnel_prod" {
		t.Errorf("Database.Name = %q, want personnel_prod", cfg.Database.Name)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReviewPath != "/review" {
		t.Errorf("Server.ReviewPath = %q, want /review", cfg.Server.ReviewPath)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Development {
		t.Errorf("Log = %+v, want debug/development", cfg.Log)
	}
	if cfg.Workflow.DefaultSLADays != 7 {
		t.Errorf("Workflow.DefaultSLADays = %d, want 7", cfg.Workflow.DefaultSLADays)
	}
	if !cfg.Reminders.Enabled || cfg.Reminders.Schedule != "30 7 * * 1-5" {
		t.Errorf("Reminders = %+v", cfg.Reminders)
	}
	if cfg.Relay.Interval != 30*time.Second {
		t.Errorf("Relay.Interval = %v, want 30s", cfg.Relay.Interval)
	}
	if cfg.Relay.BatchSize != 10 {
		t.Errorf("Relay.BatchSize = %d, want 10", cfg.Relay.BatchSize)
	}
	if cfg.Relay.LinkBase != "https://hr.example.com" {
		t.Errorf("Relay.LinkBase = %q", cfg.Relay.LinkBase)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"driver", cfg.Database.Driver, "sqlite"},
		{"path", cfg.Database.Path, "personnel.db"},
		{"port", cfg.Server.Port, 8080},
		{"review path", cfg.Server.ReviewPath, "/approvals"},
		{"log level", cfg.Log.Level, "info"},
		{"sla floor", cfg.Workflow.DefaultSLADays, 5},
		{"schedule", cfg.Reminders.Schedule, "0 8 * * *"},
		{"relay interval", cfg.Relay.Interval, time.Minute},
		{"relay batch", cfg.Relay.BatchSize, 50},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestParse_MySQLDefaults(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  driver: mysql\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Host != "127.0.0.1" || cfg.Database.Port != 3306 {
		t.Errorf("addr = %s:%d, want 127.0.0.1:3306", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.User != "root" {
		t.Errorf("User = %q, want root", cfg.Database.User)
	}
	if cfg.Database.Name != "personnel_management" {
		t.Errorf("Name = %q, want personnel_management", cfg.Database.Name)
	}
	if cfg.Database.Path != "" {
		t.Errorf("Path = %q, want empty for mysql", cfg.Database.Path)
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv(EnvJWTSecret, "from-env")
	t.Setenv(EnvRelayToken, "tok-env")

	cfg, err := Parse([]byte("relay:\n  platform: discord\n  channel_id: \"123\"\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.JWTSecret != "from-env" {
		t.Errorf("JWTSecret = %q, want from-env", cfg.Server.JWTSecret)
	}
	if cfg.Relay.BotToken != "tok-env" {
		t.Errorf("Relay.BotToken = %q, want tok-env", cfg.Relay.BotToken)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad driver", "database:\n  driver: postgres\n", "database.driver"},
		{"bad level", "log:\n  level: verbose\n", "log.level"},
		{"bad schedule", "reminders:\n  schedule: \"every day\"\n", "reminders.schedule"},
		{"bad platform", "relay:\n  platform: teams\n", "relay.platform"},
		{"relay missing token", "relay:\n  platform: slack\n  channel_id: C1\n", "relay.bot_token"},
		{"relay missing channel", "relay:\n  platform: slack\n  bot_token: x\n", "relay.channel_id"},
		{"review path", "server:\n  review_path: approvals\n", "review_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParse_MultipleErrorsJoined(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: x\nlog:\n  level: y\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("expected joined errors, got %q", err.Error())
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("database: [unterminated"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want config: parse prefix", err.Error())
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personnel.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000", cfg.Server.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/personnel.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want config: read prefix", err.Error())
	}
}
