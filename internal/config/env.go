package config

import (
	"os"
	"strconv"
)

// ConfigPath returns the explicit config path if set via LODBODIES_CONFIG.
func ConfigPath() string {
	return os.Getenv("LODBODIES_CONFIG")
}

// applyEnv applies environment variable overrides to the config. Environment
// overrides take priority over both defaults and the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("LODBODIES_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LODBODIES_DEM_ENDPOINT"); v != "" {
		cfg.Sources.DEMEndpoint = v
	}
	if v := os.Getenv("LODBODIES_IMG_ENDPOINT"); v != "" {
		cfg.Sources.IMGEndpoint = v
	}
	if v := os.Getenv("LODBODIES_MAX_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Planet.MaxLevel = n
		}
	}
	if v := os.Getenv("LODBODIES_MIN_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Planet.MinLevel = n
		}
	}
}
