package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load with absent file must fall back to defaults: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Outbox.PollInterval.Std() != time.Second || cfg.Outbox.BatchSize != 100 {
		t.Errorf("unexpected outbox defaults: %+v", cfg.Outbox)
	}
	if len(cfg.Kafka.Brokers) != 1 {
		t.Errorf("expected a default broker, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
outbox:
  pollInterval: 250ms
  batchSize: 10
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Outbox.PollInterval.Std() != 250*time.Millisecond || cfg.Outbox.BatchSize != 10 {
		t.Errorf("unexpected outbox config: %+v", cfg.Outbox)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
	// untouched sections keep their defaults
	if cfg.Redis.Address != "localhost:6379" {
		t.Errorf("expected default redis address, got %s", cfg.Redis.Address)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MYSQL_DSN", "user:pw@tcp(db:3306)/shop?parseTime=true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MySQL.DSN != "user:pw@tcp(db:3306)/shop?parseTime=true" {
		t.Errorf("MYSQL_DSN override not applied: %s", cfg.MySQL.DSN)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("KAFKA_BROKERS override not applied: %v", cfg.Kafka.Brokers)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("LOG_LEVEL override not applied: %s", cfg.Logging.Level)
	}
}
