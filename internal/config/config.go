// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Recording RecordingConfig `yaml:"recording"`
	VAD       VADConfig       `yaml:"vad"`
	Hotkey    HotkeyConfig    `yaml:"hotkey"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AudioConfig holds capture format settings
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
	BitDepth   int `yaml:"bit_depth"`
	// DeviceID selects the input device; -1 means the system default
	DeviceID   int `yaml:"device_id"`
	ChunkSize  int `yaml:"chunk_size"`
	BufferSize int `yaml:"buffer_size"`
}

// RecordingConfig holds capture lifecycle settings
type RecordingConfig struct {
	// MinSeconds rejects captures shorter than this at stop time
	MinSeconds float64 `yaml:"min_seconds"`
	// MaxSeconds force-fails captures that run past this
	MaxSeconds float64 `yaml:"max_seconds"`
	OutputDir  string  `yaml:"output_dir"`
}

// VADConfig holds speech-detection settings
type VADConfig struct {
	Enabled           bool    `yaml:"enabled"`
	FrameSize         int     `yaml:"frame_size"`
	HopSize           int     `yaml:"hop_size"`
	SmoothingWindow   int     `yaml:"smoothing_window"`
	MinSegmentSeconds float64 `yaml:"min_segment_seconds"`
}

// HotkeyConfig holds the push-to-talk binding
type HotkeyConfig struct {
	// Binding is a textual key combination, e.g. "ctrl+shift+space"
	Binding string `yaml:"binding"`
	// Mode is "hold" or "toggle"
	Mode string `yaml:"mode"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level         string `yaml:"level"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
			BitDepth:   16,
			DeviceID:   -1,
			ChunkSize:  1024,
			BufferSize: 64,
		},
		Recording: RecordingConfig{
			MinSeconds: 0.5,
			MaxSeconds: 300,
			OutputDir:  "~/.voxcapture/recordings",
		},
		VAD: VADConfig{
			Enabled:           true,
			FrameSize:         1024,
			HopSize:           512,
			SmoothingWindow:   3,
			MinSegmentSeconds: 0.5,
		},
		Hotkey: HotkeyConfig{
			Binding: "ctrl+shift+space",
			Mode:    "hold",
		},
		Logging: LoggingConfig{
			Level:         "INFO",
			Dir:           "~/.voxcapture/logs",
			RetentionDays: 7,
		},
	}
}

// Load loads configuration from the specified path. A missing file yields
// the defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so absent keys keep their default values.
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves configuration to the specified path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".voxcapture", "config.yaml")
}

// Validate validates all configuration fields
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("invalid audio.sample_rate: %d (must be positive)", c.Audio.SampleRate)
	}
	if c.Audio.Channels <= 0 {
		return fmt.Errorf("invalid audio.channels: %d (must be positive)", c.Audio.Channels)
	}
	if c.Audio.BitDepth != 16 {
		return fmt.Errorf("invalid audio.bit_depth: %d (only 16 is supported)", c.Audio.BitDepth)
	}
	if c.Audio.ChunkSize <= 0 {
		return fmt.Errorf("invalid audio.chunk_size: %d (must be positive)", c.Audio.ChunkSize)
	}
	if c.Audio.DeviceID < -1 {
		return fmt.Errorf("invalid audio.device_id: %d (must be -1 or a device index)", c.Audio.DeviceID)
	}

	if c.Recording.MinSeconds <= 0 {
		return fmt.Errorf("invalid recording.min_seconds: %g (must be positive)", c.Recording.MinSeconds)
	}
	if c.Recording.MaxSeconds <= c.Recording.MinSeconds {
		return fmt.Errorf("invalid recording.max_seconds: %g (must exceed min_seconds %g)",
			c.Recording.MaxSeconds, c.Recording.MinSeconds)
	}

	if c.VAD.Enabled {
		if c.VAD.FrameSize <= 0 {
			return fmt.Errorf("invalid vad.frame_size: %d (must be positive)", c.VAD.FrameSize)
		}
		if c.VAD.HopSize <= 0 || c.VAD.HopSize > c.VAD.FrameSize {
			return fmt.Errorf("invalid vad.hop_size: %d (must be in 1..frame_size)", c.VAD.HopSize)
		}
		if c.VAD.SmoothingWindow <= 0 || c.VAD.SmoothingWindow%2 == 0 {
			return fmt.Errorf("invalid vad.smoothing_window: %d (must be odd and positive)", c.VAD.SmoothingWindow)
		}
		if c.VAD.MinSegmentSeconds < 0 {
			return fmt.Errorf("invalid vad.min_segment_seconds: %g (must not be negative)", c.VAD.MinSegmentSeconds)
		}
	}

	if c.Hotkey.Binding == "" {
		return fmt.Errorf("hotkey.binding cannot be empty")
	}
	if mode := strings.ToLower(c.Hotkey.Mode); mode != "hold" && mode != "toggle" && mode != "" {
		return fmt.Errorf("invalid hotkey.mode: %s (must be 'hold' or 'toggle')", c.Hotkey.Mode)
	}

	switch strings.ToUpper(c.Logging.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return fmt.Errorf("invalid logging.retention_days: %d (must not be negative)", c.Logging.RetentionDays)
	}

	return nil
}

// ExpandPath expands ~ to home directory in file paths
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, path[2:]), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}
