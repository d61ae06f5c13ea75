package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.SatelliteName != "Go Voice Satellite" {
		t.Errorf("Expected default SatelliteName 'Go Voice Satellite', got '%s'", cfg.SatelliteName)
	}

	if cfg.SatellitePort != 6053 {
		t.Errorf("Expected default SatellitePort 6053, got %d", cfg.SatellitePort)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("Expected default HTTPPort 8080, got %d", cfg.HTTPPort)
	}

	if cfg.WakeWordsDir != "wakewords" {
		t.Errorf("Expected default WakeWordsDir 'wakewords', got '%s'", cfg.WakeWordsDir)
	}

	if cfg.StopWordsDir != "stopwords" {
		t.Errorf("Expected default StopWordsDir 'stopwords', got '%s'", cfg.StopWordsDir)
	}

	if !cfg.MDNSEnabled {
		t.Error("Expected MDNSEnabled to default to true")
	}

	if cfg.DuckMultiplier != 0.5 {
		t.Errorf("Expected default DuckMultiplier 0.5, got %v", cfg.DuckMultiplier)
	}

	if cfg.TimerRepeatDelay() != time.Second {
		t.Errorf("Expected default TimerRepeatDelay 1s, got %v", cfg.TimerRepeatDelay())
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Setenv("SATELLITE_NAME", "Kitchen")
	os.Setenv("SATELLITE_PORT", "7053")
	defer os.Unsetenv("SATELLITE_NAME")
	defer os.Unsetenv("SATELLITE_PORT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.SatelliteName != "Kitchen" {
		t.Errorf("Expected SatelliteName 'Kitchen', got '%s'", cfg.SatelliteName)
	}
	if cfg.SatellitePort != 7053 {
		t.Errorf("Expected SatellitePort 7053, got %d", cfg.SatellitePort)
	}
}

func TestLoad_InvalidDuckMultiplier(t *testing.T) {
	os.Setenv("DUCK_MULTIPLIER", "1.5")
	defer os.Unsetenv("DUCK_MULTIPLIER")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error for DUCK_MULTIPLIER above 1")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	os.Setenv("SATELLITE_PORT", "70000")
	defer os.Unsetenv("SATELLITE_PORT")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error for SATELLITE_PORT out of range")
	}
}
