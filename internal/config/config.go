// Package config handles loading and defaulting of engine configuration.
package config

import "time"

// Config holds all settings for the LOD bodies core.
type Config struct {
	Planet  PlanetConfig  `yaml:"planet"`
	Pool    PoolConfig    `yaml:"pool"`
	Sources SourcesConfig `yaml:"sources"`
	Logging LoggingConfig `yaml:"logging"`
}

// PlanetConfig mirrors the PlanetParameters exposed by the orchestrator.
type PlanetConfig struct {
	RadiusX     float64 `yaml:"radius_x"`
	RadiusY     float64 `yaml:"radius_y"`
	RadiusZ     float64 `yaml:"radius_z"`
	HeightScale float64 `yaml:"height_scale"`
	LODFactor   float64 `yaml:"lod_factor"`
	MinLevel    int     `yaml:"min_level"`
	MaxLevel    int     `yaml:"max_level"`
}

// PoolConfig controls the residency budget and eviction behavior of each
// TreeManager instance.
type PoolConfig struct {
	DEMCapacity int `yaml:"dem_capacity"`
	IMGCapacity int `yaml:"img_capacity"`
	EvictGraceK int `yaml:"evict_grace_frames"`
	TileResDEM  int `yaml:"tile_resolution_dem"`
	TileResIMG  int `yaml:"tile_resolution_img"`
}

// SourcesConfig holds connection settings for the tile sources.
type SourcesConfig struct {
	DEMEndpoint    string        `yaml:"dem_endpoint"`
	IMGEndpoint    string        `yaml:"img_endpoint"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// LoggingConfig holds settings for the process-wide logger a Planet's
// frame loop and tile sources log through. LogFile is empty for
// console-only output; a render session that runs unattended for a long
// fly-by wants rotation, so the file sink is always a lumberjack
// rotating writer once a path is set.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"log_max_size_mb"`
	MaxBackups int    `yaml:"log_max_backups"`
	MaxAgeDays int    `yaml:"log_max_age_days"`
	Compress   bool   `yaml:"log_compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Planet: PlanetConfig{
			RadiusX:     1.0,
			RadiusY:     1.0,
			RadiusZ:     1.0,
			HeightScale: 1.0,
			LODFactor:   1.0,
			MinLevel:    0,
			MaxLevel:    18,
		},
		Pool: PoolConfig{
			DEMCapacity: 4096,
			IMGCapacity: 4096,
			EvictGraceK: 2,
			TileResDEM:  65,
			TileResIMG:  256,
		},
		Sources: SourcesConfig{
			DEMEndpoint:    "",
			IMGEndpoint:    "",
			ConnectTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			LogFile:    "",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}
