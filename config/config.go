// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	appName        = "sublive"
	configFileName = "config.json"
)

// SpeechConfig holds the speech recognition backend settings.
type SpeechConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model,omitempty"`
}

// TranslateConfig holds the translation backend settings.
type TranslateConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model,omitempty"`
	// CacheDir enables the on-disk translation cache when set.
	CacheDir string `json:"cache_dir,omitempty"`
}

// Config represents the application configuration.
type Config struct {
	// DefaultLanguage is the recognition language new sessions start with.
	DefaultLanguage string `json:"default_language"`
	// TargetLanguage is the language captions are translated into.
	TargetLanguage string `json:"target_language"`

	// AudioSource selects the capture backend: "mic" or "meeting".
	AudioSource string `json:"audio_source"`
	// Preprocess selects the frame transform: "none" or "gate".
	Preprocess string `json:"preprocess,omitempty"`

	MaxVisibleLines    int `json:"max_visible_lines"`
	FadeTimeoutSeconds int `json:"fade_timeout_seconds"`

	MinDetectionTextLength       int     `json:"min_detection_text_length"`
	DetectionConfidenceThreshold float64 `json:"detection_confidence_threshold"`
	DetectionCooldownSeconds     int     `json:"detection_cooldown_seconds"`

	// ListenAddr is the control server address; empty disables the server.
	ListenAddr string `json:"listen_addr,omitempty"`

	Speech    SpeechConfig    `json:"speech"`
	Translate TranslateConfig `json:"translate"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultLanguage:              "en",
		TargetLanguage:               "en",
		AudioSource:                  "mic",
		MaxVisibleLines:              3,
		FadeTimeoutSeconds:           10,
		MinDetectionTextLength:       10,
		DetectionConfidenceThreshold: 0.7,
		DetectionCooldownSeconds:     60,
		ListenAddr:                   "127.0.0.1:8754",
	}
}

// FadeTimeout returns the caption fade timeout as a duration.
func (c *Config) FadeTimeout() time.Duration {
	return time.Duration(c.FadeTimeoutSeconds) * time.Second
}

// DetectionCooldown returns the detection cooldown as a duration.
func (c *Config) DetectionCooldown() time.Duration {
	return time.Duration(c.DetectionCooldownSeconds) * time.Second
}

// Load loads configuration from the config file.
// Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}
	return c.SaveFile(path)
}

// SaveFile persists the configuration to an explicit path.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.MaxVisibleLines < 1 {
		return fmt.Errorf("config: max_visible_lines must be at least 1, got %d", c.MaxVisibleLines)
	}
	if c.FadeTimeoutSeconds < 1 {
		return fmt.Errorf("config: fade_timeout_seconds must be at least 1, got %d", c.FadeTimeoutSeconds)
	}
	if c.DetectionConfidenceThreshold < 0 || c.DetectionConfidenceThreshold > 1 {
		return fmt.Errorf("config: detection_confidence_threshold must be in [0,1], got %v", c.DetectionConfidenceThreshold)
	}
	switch c.AudioSource {
	case "mic", "meeting":
	default:
		return fmt.Errorf("config: unknown audio_source %q", c.AudioSource)
	}
	return nil
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}
