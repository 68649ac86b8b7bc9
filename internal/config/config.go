// Package config handles viewer and tool configuration.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Logging  LoggingConfig  `yaml:"logging"`
	Scene    SceneConfig    `yaml:"scene"`
	Export   ExportConfig   `yaml:"export"`
	Viewer   ViewerConfig   `yaml:"viewer"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	FPSLimit   int        `yaml:"fps_limit"`
	Background [3]float32 `yaml:"background"` // clear color, 0..1
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// SceneConfig bounds scene reconstruction of untrusted files.
type SceneConfig struct {
	MaxDepth      int `yaml:"max_depth"`
	MaxWorldNodes int `yaml:"max_world_nodes"`
	RootRecord    int `yaml:"root_record"` // -1 picks the last record
}

// ExportConfig holds texture and mesh export settings.
type ExportConfig struct {
	Format        string `yaml:"format"` // png, webp or tga
	Dir           string `yaml:"dir"`
	ThumbnailSize int    `yaml:"thumbnail_size"` // 0 disables thumbnails
}

// ViewerConfig holds interactive viewer settings.
type ViewerConfig struct {
	ShowBounds       bool    `yaml:"show_bounds"`
	Wireframe        bool    `yaml:"wireframe"`
	CameraDistance   float32 `yaml:"camera_distance"` // 0 fits the scene bounds
	FOV              float32 `yaml:"fov"`
	MouseSensitivity float32 `yaml:"mouse_sensitivity"` // degrees per pixel of drag

	// A fixed sun replaces the camera headlight when enabled.
	Sun          bool    `yaml:"sun"`
	SunLongitude float32 `yaml:"sun_longitude"`
	SunLatitude  float32 `yaml:"sun_latitude"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			VSync:      true,
			Background: [3]float32{0.18, 0.18, 0.22},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Scene: SceneConfig{
			MaxDepth:      256,
			MaxWorldNodes: 65536,
			RootRecord:    -1,
		},
		Export: ExportConfig{
			Format:        "png",
			Dir:           "export",
			ThumbnailSize: 128,
		},
		Viewer: ViewerConfig{
			FOV:              45,
			MouseSensitivity: 0.3,
			SunLongitude:     45,
			SunLatitude:      45,
		},
	}
}

// Validate reports settings no component can work with.
func (c *Config) Validate() error {
	switch {
	case c.Graphics.Width <= 0 || c.Graphics.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Graphics.Width, c.Graphics.Height)
	case c.Scene.MaxDepth <= 0:
		return fmt.Errorf("%w: scene.max_depth %d", ErrInvalidConfig, c.Scene.MaxDepth)
	case c.Scene.MaxWorldNodes <= 0:
		return fmt.Errorf("%w: scene.max_world_nodes %d", ErrInvalidConfig, c.Scene.MaxWorldNodes)
	case c.Export.ThumbnailSize < 0:
		return fmt.Errorf("%w: export.thumbnail_size %d", ErrInvalidConfig, c.Export.ThumbnailSize)
	case c.Viewer.FOV <= 0 || c.Viewer.FOV >= 180:
		return fmt.Errorf("%w: viewer.fov %v", ErrInvalidConfig, c.Viewer.FOV)
	}
	switch c.Export.Format {
	case "png", "webp", "tga":
	default:
		return fmt.Errorf("%w: export.format %q", ErrInvalidConfig, c.Export.Format)
	}
	return nil
}
