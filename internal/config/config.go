// Package config loads the handvol YAML configuration.
package config

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/handvol/internal/app"
	"github.com/ayusman/handvol/internal/audio"
	"github.com/ayusman/handvol/internal/capture"
	"github.com/ayusman/handvol/internal/dashboard"
	"github.com/ayusman/handvol/internal/detector"
	"github.com/ayusman/handvol/internal/gesture"
	"github.com/ayusman/handvol/internal/plugin"
	"github.com/ayusman/handvol/internal/session"
	"github.com/ayusman/handvol/internal/state"
	"github.com/ayusman/handvol/internal/volume"
)

// Config represents the complete handvol configuration.
type Config struct {
	Camera    capture.Config     `yaml:"camera"`
	Detector  detector.Config    `yaml:"detector"`
	Gesture   gesture.Thresholds `yaml:"gesture"`
	Volume    volume.Config      `yaml:"volume"`
	Pipeline  PipelineConfig     `yaml:"pipeline"`
	Dashboard DashboardConfig    `yaml:"dashboard"`
	Server    ServerConfig       `yaml:"server"`
	Store     StoreConfig        `yaml:"store"`
	Plugins   PluginsConfig      `yaml:"plugins"`
}

// PipelineConfig paces the detection loop.
type PipelineConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"`
	HistorySize   int           `yaml:"history_size"`
}

// DashboardConfig paces the refresh loop and sizes the display frame.
type DashboardConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	DisplayWidth    int           `yaml:"display_width"`
	DisplayHeight   int           `yaml:"display_height"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// PluginsConfig selects the audio device plugin.
type PluginsConfig struct {
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
	// Audio is the name of the plugin that controls the output volume.
	Audio string `yaml:"audio"`
	// LevelRefresh is how long a read device level is reused.
	LevelRefresh time.Duration `yaml:"level_refresh"`
}

// DataDir returns the per-user data directory, ~/.handvol.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".handvol"
	}
	return filepath.Join(home, ".handvol")
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Camera:   capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Gesture:  gesture.DefaultThresholds(),
		Volume:   volume.DefaultConfig(),
		Pipeline: PipelineConfig{
			FrameInterval: app.DefaultFrameInterval,
			HistorySize:   state.DefaultHistorySize,
		},
		Dashboard: DashboardConfig{
			RefreshInterval: dashboard.DefaultInterval,
			DisplayWidth:    capture.DefaultWidth,
			DisplayHeight:   capture.DefaultHeight,
		},
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Path: filepath.Join(DataDir(), "handvol.db")},
		Plugins: PluginsConfig{
			Dir:          "plugins",
			Timeout:      plugin.DefaultTimeout,
			Audio:        "system-control",
			LevelRefresh: audio.DefaultLevelRefresh,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Camera.Validate(); err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if err := c.Gesture.Validate(); err != nil {
		return fmt.Errorf("gesture: %w", err)
	}
	if err := c.Volume.Validate(); err != nil {
		return fmt.Errorf("volume: %w", err)
	}
	if c.Pipeline.FrameInterval <= 0 {
		return errors.New("pipeline: frame_interval must be positive")
	}
	if c.Pipeline.HistorySize < 1 {
		return errors.New("pipeline: history_size must be at least 1")
	}
	if c.Dashboard.RefreshInterval <= 0 {
		return errors.New("dashboard: refresh_interval must be positive")
	}
	if c.Dashboard.DisplayWidth <= 0 || c.Dashboard.DisplayHeight <= 0 {
		return errors.New("dashboard: display size must be positive")
	}
	if c.Server.Addr == "" {
		return errors.New("server: addr is required")
	}
	if c.Store.Path == "" {
		return errors.New("store: path is required")
	}
	if c.Plugins.Timeout <= 0 {
		return errors.New("plugins: timeout must be positive")
	}
	return nil
}

// Session returns the classifier and mapper tuning.
func (c *Config) Session() session.Config {
	return session.Config{Gesture: c.Gesture, Volume: c.Volume}
}

// App returns the detection loop configuration.
func (c *Config) App() app.Config {
	return app.Config{
		Camera:        c.Camera,
		Detector:      c.Detector,
		Session:       c.Session(),
		FrameInterval: c.Pipeline.FrameInterval,
		Display:       image.Pt(c.Dashboard.DisplayWidth, c.Dashboard.DisplayHeight),
		HistorySize:   c.Pipeline.HistorySize,
	}
}
