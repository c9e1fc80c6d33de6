package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.TickInterval != 400*time.Millisecond {
		t.Errorf("TickInterval = %v, want 400ms", cfg.TickInterval)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ASC_PORT", "9090")
	t.Setenv("ASC_TICK_INTERVAL", "50ms")
	t.Setenv("ASC_SEED", "77")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.TickInterval != 50*time.Millisecond {
		t.Errorf("TickInterval = %v", cfg.TickInterval)
	}
	if cfg.Seed != 77 {
		t.Errorf("Seed = %d, want 77", cfg.Seed)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("ASC_TICK_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error for bad duration")
	}
}
