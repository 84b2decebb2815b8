package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all process-wide defaults. Values are read once at startup
// and never mutated mid-run; per-call options override individual fields.
type Config struct {
	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Background-removal API settings
	API APIConfig `yaml:"api"`

	// Composition defaults
	Compose ComposeConfig `yaml:"compose"`
}

type FFmpegConfig struct {
	BinaryPath     string `yaml:"binary_path"`
	ProbePath      string `yaml:"probe_path"`
	Threads        int    `yaml:"threads"`
	HWAcceleration bool   `yaml:"hw_acceleration"`
}

type APIConfig struct {
	BaseURL      string  `yaml:"base_url"`
	Key          string  `yaml:"key"`
	Model        string  `yaml:"model"`
	PollSeconds  float64 `yaml:"poll_seconds"`
	PreferFormat string  `yaml:"prefer_format"`
}

type ComposeConfig struct {
	DefaultFPS     float64 `yaml:"default_fps"`
	DefaultEncoder string  `yaml:"default_encoder"`
	DefaultCRF     int     `yaml:"default_crf"`
	DefaultPreset  string  `yaml:"default_preset"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	if cfg.API.Key == "" {
		cfg.API.Key = os.Getenv("VBGR_API_KEY")
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
		},
		API: APIConfig{
			BaseURL:      "https://api.videobgremover.com",
			Model:        "videobgremover-original",
			PollSeconds:  2.0,
			PreferFormat: "auto",
		},
		Compose: ComposeConfig{
			DefaultFPS:     30.0,
			DefaultEncoder: "h264",
			DefaultCRF:     18,
			DefaultPreset:  "medium",
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./vbgr.yaml",
		"./vbgr.yml",
		filepath.Join(os.Getenv("HOME"), ".vbgr", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
