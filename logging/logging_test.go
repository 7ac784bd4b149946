package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Fatalf("expected default level info, got %s", cfg.Level)
	}
	if cfg.Format != "text" {
		t.Fatalf("expected default format text, got %s", cfg.Format)
	}
}

func TestConfigFromEnvOverride(t *testing.T) {
	t.Setenv("SUBSYSTEM_LOG_LEVEL", "debug")
	t.Setenv("SUBSYSTEM_LOG_FORMAT", "json")

	cfg := ConfigFromEnv()
	if cfg.Level != "debug" {
		t.Fatalf("expected overridden level debug, got %s", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Fatalf("expected overridden format json, got %s", cfg.Format)
	}
}

func TestConfigFromEnvDefaultsWhenUnset(t *testing.T) {
	cfg := ConfigFromEnv()
	if cfg.Level != "info" || cfg.Format != "text" {
		t.Fatalf("expected defaults preserved when no env set, got %+v", cfg)
	}
}

func TestNewAppliesConfig(t *testing.T) {
	l := New("test-component", Config{Level: "warn", Format: "json"})
	if l.component != "test-component" {
		t.Fatalf("expected component name to be set")
	}
	if l.GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected level warn, got %s", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter, got %T", l.Formatter)
	}
}
