//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/music",
			expected: filepath.Join(home, "music"),
		},
		{
			name:     "tilde with nested path",
			input:    "~/music/samples/loops",
			expected: filepath.Join(home, "music", "samples", "loops"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/usr/local/music",
			expected: "/usr/local/music",
		},
		{
			name:     "relative path unchanged",
			input:    "music/samples",
			expected: "music/samples",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	if len(paths) == 0 {
		t.Error("getConfigPaths() returned empty slice")
	}

	// Last path should be local config.toml
	lastPath := paths[len(paths)-1]
	if lastPath != "config.toml" {
		t.Errorf("last config path = %q, want %q", lastPath, "config.toml")
	}

	// If we have home dir, first path should be ~/.config/polyplay/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		expectedFirst := filepath.Join(home, ".config", "polyplay", "config.toml")
		if paths[0] != expectedFirst {
			t.Errorf("first config path = %q, want %q", paths[0], expectedFirst)
		}
	}
}

func TestGetPlaybackConfig_Defaults(t *testing.T) {
	cfg := Config{}
	pb := cfg.GetPlaybackConfig()

	if pb.UpdateIntervalMs != 200 {
		t.Errorf("UpdateIntervalMs = %d, want 200", pb.UpdateIntervalMs)
	}
	if pb.Volume != 1.0 {
		t.Errorf("Volume = %f, want 1.0", pb.Volume)
	}
	if pb.Rate != 1.0 {
		t.Errorf("Rate = %f, want 1.0", pb.Rate)
	}
	if pb.FinishMode != "stop" {
		t.Errorf("FinishMode = %q, want %q", pb.FinishMode, "stop")
	}
}

func TestGetPlaybackConfig_CustomValues(t *testing.T) {
	cfg := Config{
		Playback: PlaybackConfig{
			UpdateIntervalMs: 50,
			Volume:           0.5,
			Rate:             1.5,
			FinishMode:       "loop",
			OverrideSession:  true,
		},
	}

	pb := cfg.GetPlaybackConfig()

	if pb.UpdateIntervalMs != 50 {
		t.Errorf("UpdateIntervalMs = %d, want 50", pb.UpdateIntervalMs)
	}
	if pb.Volume != 0.5 {
		t.Errorf("Volume = %f, want 0.5", pb.Volume)
	}
	if pb.Rate != 1.5 {
		t.Errorf("Rate = %f, want 1.5", pb.Rate)
	}
	if pb.FinishMode != "loop" {
		t.Errorf("FinishMode = %q, want %q", pb.FinishMode, "loop")
	}
	if !pb.OverrideSession {
		t.Error("OverrideSession = false, want true")
	}
}

func TestGetPlaybackConfig_InvalidValues(t *testing.T) {
	cfg := Config{
		Playback: PlaybackConfig{
			UpdateIntervalMs: -10,      // negative, should become 200
			Volume:           1.5,      // > 1, should become 1.0
			Rate:             0,        // zero, should become 1.0
			FinishMode:       "repeat", // unknown, should become "stop"
		},
	}

	pb := cfg.GetPlaybackConfig()

	if pb.UpdateIntervalMs != 200 {
		t.Errorf("UpdateIntervalMs with invalid value = %d, want 200", pb.UpdateIntervalMs)
	}
	if pb.Volume != 1.0 {
		t.Errorf("Volume with invalid value = %f, want 1.0", pb.Volume)
	}
	if pb.Rate != 1.0 {
		t.Errorf("Rate with invalid value = %f, want 1.0", pb.Rate)
	}
	if pb.FinishMode != "stop" {
		t.Errorf("FinishMode with invalid value = %q, want %q", pb.FinishMode, "stop")
	}
}

func TestGetWaveformConfig(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		expected int
	}{
		{name: "zero becomes default", count: 0, expected: 100},
		{name: "negative becomes default", count: -5, expected: 100},
		{name: "custom value kept", count: 256, expected: 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Waveform: WaveformConfig{SampleCount: tt.count}}
			if got := cfg.GetWaveformConfig().SampleCount; got != tt.expected {
				t.Errorf("SampleCount = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not change to temp directory: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	if err := os.WriteFile("config.toml", []byte(""), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	// Note: values may be inherited from ~/.config/polyplay/config.toml if
	// it exists; we just verify Load() succeeds and returns a valid config.
}

func TestLoad_BasicConfig(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not change to temp directory: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	configContent := `
default_folder = "~/music"

[playback]
update_interval_ms = 100
volume = 0.8
finish_mode = "pause"

[waveform]
sample_count = 200
`
	if err := os.WriteFile("config.toml", []byte(configContent), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	expectedFolder := filepath.Join(home, "music")
	if cfg.DefaultFolder != expectedFolder {
		t.Errorf("DefaultFolder = %q, want %q", cfg.DefaultFolder, expectedFolder)
	}

	if cfg.Playback.UpdateIntervalMs != 100 {
		t.Errorf("Playback.UpdateIntervalMs = %d, want 100", cfg.Playback.UpdateIntervalMs)
	}
	if cfg.Playback.Volume != 0.8 {
		t.Errorf("Playback.Volume = %f, want 0.8", cfg.Playback.Volume)
	}
	if cfg.Playback.FinishMode != "pause" {
		t.Errorf("Playback.FinishMode = %q, want %q", cfg.Playback.FinishMode, "pause")
	}
	if cfg.Waveform.SampleCount != 200 {
		t.Errorf("Waveform.SampleCount = %d, want 200", cfg.Waveform.SampleCount)
	}
}

func TestLoad_InvalidToml(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not change to temp directory: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	if err := os.WriteFile("config.toml", []byte("invalid = [[["), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	_, err = Load()
	if err == nil {
		t.Error("Load() expected error for invalid TOML, got nil")
	}
}
