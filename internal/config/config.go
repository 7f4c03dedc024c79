package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
	Media   MediaConfig   `toml:"media"`
	Logging LoggingConfig `toml:"logging"`
	Auth    AuthConfig    `toml:"auth"`
	Artwork ArtworkConfig `toml:"artwork"`
	Insight InsightConfig `toml:"insight"`
	Tunnel  TunnelConfig  `toml:"tunnel"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port        string `toml:"port"`
	Host        string `toml:"host"`
	StaticDir   string `toml:"static_dir"`
	EnableCORS  bool   `toml:"enable_cors"`
	ReadTimeout int    `toml:"read_timeout_seconds"`
}

// StoreConfig contains persistence store configuration
type StoreConfig struct {
	Path       string `toml:"path"`
	AdminEmail string `toml:"admin_email"`
}

// MediaConfig contains uploaded media configuration
type MediaConfig struct {
	Dir              string   `toml:"dir"`
	SupportedFormats []string `toml:"supported_formats"`
	MaxUploadMB      int64    `toml:"max_upload_mb"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	File           string `toml:"file"`
	RequestLogging bool   `toml:"request_logging"`
}

// AuthConfig contains session and signup configuration
type AuthConfig struct {
	SessionDuration string `toml:"session_duration"`
	SecureCookies   bool   `toml:"secure_cookies"`
	AllowSignup     bool   `toml:"allow_signup"`
}

// ArtworkConfig contains album artwork lookup configuration
type ArtworkConfig struct {
	Enabled         bool   `toml:"enabled"`
	Endpoint        string `toml:"endpoint"`
	Placeholder     string `toml:"placeholder"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
}

// InsightConfig contains AI flavor-text configuration. The API key is read
// from the GEMINI_API_KEY environment variable, never from this file.
type InsightConfig struct {
	Enabled  bool   `toml:"enabled"`
	Model    string `toml:"model"`
	Endpoint string `toml:"endpoint"`
}

// TunnelConfig contains public tunnel configuration
type TunnelConfig struct {
	Enabled bool   `toml:"enabled"`
	Domain  string `toml:"domain"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Host:        "0.0.0.0",
			StaticDir:   "./static",
			EnableCORS:  true,
			ReadTimeout: 30,
		},
		Store: StoreConfig{
			Path:       "./smartmusic.db",
			AdminEmail: "admin@smartmusic.local",
		},
		Media: MediaConfig{
			Dir:              "./media",
			SupportedFormats: []string{".mp3", ".flac", ".wav", ".m4a"},
			MaxUploadMB:      50,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			File:           "",
			RequestLogging: true,
		},
		Auth: AuthConfig{
			SessionDuration: "24h",
			SecureCookies:   false,
			AllowSignup:     true,
		},
		Artwork: ArtworkConfig{
			Enabled:         true,
			Endpoint:        "https://itunes.apple.com/search",
			Placeholder:     "https://picsum.photos",
			CacheTTLMinutes: 60,
		},
		Insight: InsightConfig{
			Enabled:  true,
			Model:    "gemini-2.5-flash",
			Endpoint: "https://generativelanguage.googleapis.com/v1beta",
		},
		Tunnel: TunnelConfig{
			Enabled: false,
			Domain:  "",
		},
	}
}

// LoadConfig loads configuration from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create it with defaults
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		fmt.Printf("Created default configuration file at: %s\n", configPath)
		return cfg, nil
	}

	// Load from file
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Write header comment
	header := `# Smart Music Server Configuration
# This file contains all configuration options for the Smart Music server.
# Edit the values below to customize your server settings.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store path cannot be empty")
	}
	if c.Store.AdminEmail == "" {
		return fmt.Errorf("store admin email cannot be empty")
	}

	if c.Media.Dir == "" {
		return fmt.Errorf("media directory cannot be empty")
	}
	if len(c.Media.SupportedFormats) == 0 {
		return fmt.Errorf("at least one supported audio format must be specified")
	}
	if c.Media.MaxUploadMB < 1 {
		return fmt.Errorf("max upload size must be at least 1 MB")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	if c.Auth.SessionDuration == "" {
		return fmt.Errorf("session duration cannot be empty")
	}

	if c.Artwork.Enabled && c.Artwork.Endpoint == "" {
		return fmt.Errorf("artwork endpoint cannot be empty when artwork lookup is enabled")
	}
	if c.Insight.Enabled && c.Insight.Model == "" {
		return fmt.Errorf("insight model cannot be empty when insight is enabled")
	}

	return nil
}

// GetAddress returns the full server address
func (c *Config) GetAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// IsFormatSupported checks if an audio format is supported for uploads
func (c *Config) IsFormatSupported(format string) bool {
	format = strings.ToLower(format)
	for _, supported := range c.Media.SupportedFormats {
		if supported == format {
			return true
		}
	}
	return false
}
