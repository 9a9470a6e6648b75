package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keagan/clipdeck/internal/drag"
	"github.com/keagan/clipdeck/internal/fade"
	"github.com/keagan/clipdeck/internal/geometry"
	"github.com/keagan/clipdeck/internal/preview"
	"github.com/keagan/clipdeck/internal/timeline"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Timeline view settings
	Timeline TimelineConfig `yaml:"timeline"`

	// Drag feel
	Drag DragConfig `yaml:"drag"`

	// Fade handle settings
	Fade FadeConfig `yaml:"fade"`

	// Terminal preview settings
	Preview PreviewConfig `yaml:"preview"`

	// Export settings
	Export ExportConfig `yaml:"export"`
}

type TimelineConfig struct {
	Zoom            float64 `yaml:"zoom"`
	ScrollX         float64 `yaml:"scroll_x"`
	ScrollY         float64 `yaml:"scroll_y"`
	SnappingEnabled bool    `yaml:"snapping_enabled"`
	SnapRadiusPx    float64 `yaml:"snap_radius_px"`
}

type DragConfig struct {
	TrackChangeDelay      time.Duration `yaml:"track_change_delay"`
	TrackChangeDistancePx float64       `yaml:"track_change_distance_px"`
	MaxConstraintPasses   int           `yaml:"max_constraint_passes"`
}

type FadeConfig struct {
	InEasing  timeline.Easing `yaml:"in_easing"`
	OutEasing timeline.Easing `yaml:"out_easing"`
}

type PreviewConfig struct {
	// SecondsPerCell is how much time one terminal column covers
	SecondsPerCell float64 `yaml:"seconds_per_cell"`
	Width          int     `yaml:"width"`
	NoColor        bool    `yaml:"no_color"`
}

type ExportConfig struct {
	FrameRate int    `yaml:"frame_rate"`
	Title     string `yaml:"title"`
	OutDir    string `yaml:"out_dir"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
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

// Validate rejects settings the engine treats as precondition violations
func (c *Config) Validate() error {
	if !(c.Timeline.Zoom > 0) {
		return fmt.Errorf("timeline.zoom must be positive, got %v", c.Timeline.Zoom)
	}
	if c.Export.FrameRate <= 0 {
		return fmt.Errorf("export.frame_rate must be positive, got %d", c.Export.FrameRate)
	}
	if c.Preview.SecondsPerCell <= 0 {
		return fmt.Errorf("preview.seconds_per_cell must be positive, got %v", c.Preview.SecondsPerCell)
	}
	return nil
}

// Viewport returns the configured starting viewport
func (c *Config) Viewport() geometry.Viewport {
	return geometry.Viewport{Zoom: c.Timeline.Zoom, ScrollX: c.Timeline.ScrollX, ScrollY: c.Timeline.ScrollY}
}

// DragOptions maps the drag section onto controller options
func (c *Config) DragOptions() drag.Options {
	return drag.Options{
		TrackChangeDelay:      c.Drag.TrackChangeDelay,
		TrackChangeDistancePx: c.Drag.TrackChangeDistancePx,
		SnapRadiusPx:          c.Timeline.SnapRadiusPx,
		MaxConstraintPasses:   c.Drag.MaxConstraintPasses,
	}
}

// FadeOptions maps the fade section onto controller options
func (c *Config) FadeOptions() fade.Options {
	return fade.Options{InEasing: c.Fade.InEasing, OutEasing: c.Fade.OutEasing}
}

// PreviewOptions maps the preview section onto renderer options
func (c *Config) PreviewOptions() preview.Options {
	return preview.Options{
		SecondsPerCell: c.Preview.SecondsPerCell,
		Width:          c.Preview.Width,
		NoColor:        c.Preview.NoColor,
	}
}

func defaultConfig() *Config {
	d := drag.DefaultOptions()
	f := fade.DefaultOptions()
	return &Config{
		Timeline: TimelineConfig{
			Zoom:            100,
			SnappingEnabled: true,
			SnapRadiusPx:    d.SnapRadiusPx,
		},
		Drag: DragConfig{
			TrackChangeDelay:      d.TrackChangeDelay,
			TrackChangeDistancePx: d.TrackChangeDistancePx,
			MaxConstraintPasses:   d.MaxConstraintPasses,
		},
		Fade: FadeConfig{
			InEasing:  f.InEasing,
			OutEasing: f.OutEasing,
		},
		Preview: PreviewConfig{
			SecondsPerCell: 0.5,
			Width:          80,
		},
		Export: ExportConfig{
			FrameRate: 30,
			Title:     "CLIPDECK",
			OutDir:    "./export",
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./clipdeck.yaml",
		"./clipdeck.yml",
		filepath.Join(os.Getenv("HOME"), ".clipdeck", "config.yaml"),
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
