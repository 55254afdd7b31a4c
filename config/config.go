package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	DefaultFolder string `koanf:"default_folder"`

	// Playback defaults applied to every new player
	Playback PlaybackConfig `koanf:"playback"`

	// Waveform extraction settings
	Waveform WaveformConfig `koanf:"waveform"`
}

// PlaybackConfig holds the per-player playback defaults.
type PlaybackConfig struct {
	UpdateIntervalMs int     `koanf:"update_interval_ms"` // position tick frequency (default: 200)
	Volume           float64 `koanf:"volume"`             // 0.0-1.0 (default: 1.0)
	Rate             float64 `koanf:"rate"`               // playback speed multiplier (default: 1.0)
	FinishMode       string  `koanf:"finish_mode"`        // "stop", "pause", or "loop" (default: "stop")
	OverrideSession  bool    `koanf:"override_session"`   // take over the platform audio session
}

// WaveformConfig holds waveform extraction configuration.
type WaveformConfig struct {
	SampleCount int `koanf:"sample_count"` // amplitude points per track (default: 100)
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		DefaultFolder: "", // empty means use cwd
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Expand ~ in default_folder
	if cfg.DefaultFolder != "" {
		cfg.DefaultFolder = expandPath(cfg.DefaultFolder)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/polyplay/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "polyplay", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback

	// Apply defaults
	if cfg.UpdateIntervalMs <= 0 {
		cfg.UpdateIntervalMs = 200
	}
	if cfg.Volume <= 0 || cfg.Volume > 1 {
		cfg.Volume = 1.0
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1.0
	}
	switch cfg.FinishMode {
	case "stop", "pause", "loop":
	default:
		cfg.FinishMode = "stop"
	}

	return cfg
}

// GetWaveformConfig returns the waveform configuration with defaults applied.
func (c *Config) GetWaveformConfig() WaveformConfig {
	cfg := c.Waveform

	if cfg.SampleCount <= 0 {
		cfg.SampleCount = 100
	}

	return cfg
}
