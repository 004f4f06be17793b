// Package config loads and validates the driver configuration from a
// TOML file, applying the override chain defaults -> file -> environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config is the full configuration surface: the OAuth2 client
// registration, the container the driver is scoped to, and local paths.
type Config struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	ContainerID  string `toml:"container_id"`
	TokenPath    string `toml:"token_path"`
	CachePath    string `toml:"cache_path"`
	LogLevel     string `toml:"log_level"`
}

// DefaultRedirectURI is the out-of-band redirect for the paste-the-code flow.
const DefaultRedirectURI = "http://localhost:8090/callback"

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		RedirectURI: DefaultRedirectURI,
		TokenPath:   filepath.Join(configDir(), "token.json"),
		CachePath:   filepath.Join(configDir(), "cache.db"),
		LogLevel:    "info",
	}
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.toml")
}

// configDir resolves the per-user configuration directory. Falls back to
// the working directory when the home directory cannot be determined.
func configDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".gdrive-go"
	}

	return filepath.Join(base, "gdrive-go")
}

// validLogLevels gates the log_level key.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the resolved configuration. Credentials must be
// present — there is no anonymous mode.
func Validate(cfg *Config) error {
	if cfg.ClientID == "" {
		return fmt.Errorf("config: client_id is required")
	}

	if cfg.ClientSecret == "" {
		return fmt.Errorf("config: client_secret is required")
	}

	if cfg.TokenPath == "" {
		return fmt.Errorf("config: token_path is required")
	}

	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("config: invalid log_level %q (debug, info, warn, error)", cfg.LogLevel)
	}

	return nil
}
