package config

import "os"

// Environment variable names. Environment wins over the config file so
// CI and one-off runs can override without editing it.
const (
	EnvConfigPath   = "GDRIVE_GO_CONFIG"
	EnvClientID     = "GDRIVE_GO_CLIENT_ID"
	EnvClientSecret = "GDRIVE_GO_CLIENT_SECRET"
	EnvContainerID  = "GDRIVE_GO_CONTAINER_ID"
	EnvTokenPath    = "GDRIVE_GO_TOKEN_PATH"
)

// ConfigPathFromEnv returns the config path override, or empty.
func ConfigPathFromEnv() string {
	return os.Getenv(EnvConfigPath)
}

// applyEnvOverrides layers environment variables over the loaded config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvClientID); v != "" {
		cfg.ClientID = v
	}

	if v := os.Getenv(EnvClientSecret); v != "" {
		cfg.ClientSecret = v
	}

	if v := os.Getenv(EnvContainerID); v != "" {
		cfg.ContainerID = v
	}

	if v := os.Getenv(EnvTokenPath); v != "" {
		cfg.TokenPath = v
	}
}
