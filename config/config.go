package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// AudioConfig stores analysis tunables forwarded to the audio engine.
type AudioConfig struct {
	SampleRate      int     `json:"sampleRate,omitempty"`
	FFTSize         int     `json:"fftSize,omitempty"`
	Smoothing       float64 `json:"smoothing,omitempty"`
	BeatSensitivity float64 `json:"beatSensitivity,omitempty"`
	InputGain       float64 `json:"inputGain,omitempty"`
	// CaptureCommand launches the PCM capture process. Defaults to a
	// low-latency pulse capture with processing disabled.
	CaptureCommand []string `json:"captureCommand,omitempty"`
}

// MIDIConfig stores MIDI device preferences.
type MIDIConfig struct {
	PreferredPort string `json:"preferredPort,omitempty"`
	AutoConnect   bool   `json:"autoConnect"`
}

// VideoConfig stores playback preferences.
type VideoConfig struct {
	PlaybackRate float64 `json:"playbackRate,omitempty"`
}

// Config is the main configuration structure.
type Config struct {
	Audio AudioConfig `json:"audio,omitempty"`
	MIDI  MIDIConfig  `json:"midi,omitempty"`
	Video VideoConfig `json:"video,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:      44100,
			FFTSize:         2048,
			Smoothing:       0.8,
			BeatSensitivity: 1.0,
			InputGain:       1.0,
			CaptureCommand: []string{
				"parec", "--format=s16le", "--channels=1",
				"--rate=44100", "--latency-msec=5",
			},
		},
		MIDI: MIDIConfig{
			AutoConnect: true,
		},
		Video: VideoConfig{
			PlaybackRate: 1.0,
		},
	}
}

// ConfigDir returns the config directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-vizmix"), nil
}

// ConfigPath returns the full path to config.json.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
