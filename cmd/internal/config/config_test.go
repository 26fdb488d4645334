package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":7070"
database:
  url: "postgres://app@db/availability"
  slow_query_ms: 250
events:
  broker: redis
  url: "redis://localhost:6379/0"
log:
  level: debug
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_ADDR", ":8080")
	t.Setenv("EVENTS_TOPIC", "slots")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("env should override the file, got %s", cfg.Server.Addr)
	}
	if cfg.Database.URL != "postgres://app@db/availability" || cfg.Database.SlowQueryThreshold() != 250*time.Millisecond {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
	if cfg.Database.MaxOpenConns != 4 {
		t.Errorf("max open conns = %d, want 4", cfg.Database.MaxOpenConns)
	}
	if cfg.Events.Broker != "redis" || cfg.Events.Topic != "slots" {
		t.Errorf("unexpected events config %+v", cfg.Events)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{"unknown key", "server:\n  port: 1\n", nil},
		{"unknown broker", "", map[string]string{"EVENTS_BROKER": "nats"}},
		{"kafka without brokers", "", map[string]string{"EVENTS_BROKER": "kafka"}},
		{"broker without url", "", map[string]string{"EVENTS_BROKER": "amqp"}},
		{"bad conns", "", map[string]string{"DATABASE_MAX_OPEN_CONNS": "many"}},
		{"bad level", "", map[string]string{"LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", writeFile(t, tt.file))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestExplicitMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a missing explicit config file")
	}
}
