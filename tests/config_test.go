package tests

import (
	"os"
	"path/filepath"
	"testing"

	"smartmusic/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
	if cfg.Server.Port == "" {
		t.Error("Expected a default port")
	}
	if len(cfg.Media.SupportedFormats) == 0 {
		t.Error("Expected default supported formats")
	}
	if cfg.GetAddress() == "" {
		t.Error("Expected a listen address")
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// A missing file is materialized with defaults
	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("Expected config file to be created: %v", err)
	}
	if cfg.Server.Port != config.DefaultConfig().Server.Port {
		t.Errorf("Expected default port, got %s", cfg.Server.Port)
	}
}

func TestLoadConfigRoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	cfg := config.DefaultConfig()
	cfg.Server.Port = "9999"
	cfg.Logging.Level = "debug"
	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if loaded.Server.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", loaded.Server.Port)
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("Expected debug level, got %s", loaded.Logging.Level)
	}
}

func TestIsFormatSupported(t *testing.T) {
	cfg := config.DefaultConfig()

	if !cfg.IsFormatSupported(".mp3") {
		t.Error("Expected .mp3 to be supported")
	}
	if !cfg.IsFormatSupported(".MP3") {
		t.Error("Expected extension check to be case-insensitive")
	}
	if cfg.IsFormatSupported(".ogg") {
		t.Error("Expected .ogg to be unsupported by default")
	}
}
