package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 || cfg.Graphics.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Scene.MaxDepth != 256 {
		t.Errorf("expected max depth 256, got %d", cfg.Scene.MaxDepth)
	}
	if cfg.Scene.MaxWorldNodes != 65536 {
		t.Errorf("expected max world nodes 65536, got %d", cfg.Scene.MaxWorldNodes)
	}
	if cfg.Scene.RootRecord != -1 {
		t.Errorf("expected root record -1, got %d", cfg.Scene.RootRecord)
	}

	if cfg.Export.Format != "png" {
		t.Errorf("expected export format png, got %s", cfg.Export.Format)
	}
	if cfg.Export.ThumbnailSize != 128 {
		t.Errorf("expected thumbnail size 128, got %d", cfg.Export.ThumbnailSize)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false
  fps_limit: 144
  background: [0, 0, 0.5]

logging:
  level: "debug"
  log_file: "viewer.log"

scene:
  max_depth: 64
  max_world_nodes: 1000
  root_record: 3

export:
  format: webp
  dir: out
  thumbnail_size: 0

viewer:
  show_bounds: true
  wireframe: true
  camera_distance: 250
  fov: 60
`)

	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 || cfg.Graphics.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if !cfg.Graphics.Fullscreen || cfg.Graphics.VSync {
		t.Error("expected fullscreen without vsync")
	}
	if cfg.Graphics.FPSLimit != 144 {
		t.Errorf("expected fps limit 144, got %d", cfg.Graphics.FPSLimit)
	}
	if cfg.Graphics.Background != [3]float32{0, 0, 0.5} {
		t.Errorf("background = %v", cfg.Graphics.Background)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "viewer.log" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Scene != (SceneConfig{MaxDepth: 64, MaxWorldNodes: 1000, RootRecord: 3}) {
		t.Errorf("scene = %+v", cfg.Scene)
	}
	if cfg.Export != (ExportConfig{Format: "webp", Dir: "out", ThumbnailSize: 0}) {
		t.Errorf("export = %+v", cfg.Export)
	}
	if !cfg.Viewer.ShowBounds || !cfg.Viewer.Wireframe || cfg.Viewer.CameraDistance != 250 || cfg.Viewer.FOV != 60 {
		t.Errorf("viewer = %+v", cfg.Viewer)
	}
	// untouched keys keep their defaults
	if cfg.Viewer.MouseSensitivity != 0.3 {
		t.Errorf("expected default mouse sensitivity, got %v", cfg.Viewer.MouseSensitivity)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "graphics:\n  width: not a number\n  invalid syntax here\n"},
		{"unknown key", "graphics:\n  widht: 800\n"},
		{"short background", "graphics:\n  background: [1, 2]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := loadFromFile(Default(), writeConfig(t, tt.content)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	if err := loadFromFile(Default(), "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, writeConfig(t, "")); err != nil {
		t.Fatalf("empty file: %v", err)
	}
	if cfg.Graphics.Width != 1280 {
		t.Errorf("empty file changed width to %d", cfg.Graphics.Width)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Graphics.Width = 0 }},
		{"zero depth", func(c *Config) { c.Scene.MaxDepth = 0 }},
		{"zero world nodes", func(c *Config) { c.Scene.MaxWorldNodes = 0 }},
		{"negative thumbnail", func(c *Config) { c.Export.ThumbnailSize = -1 }},
		{"fov", func(c *Config) { c.Viewer.FOV = 180 }},
		{"format", func(c *Config) { c.Export.Format = "bmp" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" || !cfg.Viewer.ShowBounds {
					t.Errorf("debug: level %s, bounds %v", cfg.Logging.Level, cfg.Viewer.ShowBounds)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "windowed flag",
			setup: func() { *flagWindowed = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() { *flagWindowed = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name:  "width and height flags",
			setup: func() { *flagWidth, *flagHeight = 2560, 1440 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() { *flagWidth, *flagHeight = 0, 0 },
		},
		{
			name:  "scene and export flags",
			setup: func() { *flagRoot, *flagExportDir, *flagFormat, *flagWireframe = 2, "tex", "tga", true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Scene.RootRecord != 2 || cfg.Export.Dir != "tex" || cfg.Export.Format != "tga" || !cfg.Viewer.Wireframe {
					t.Errorf("scene %+v export %+v", cfg.Scene, cfg.Export)
				}
			},
			teardown: func() { *flagRoot, *flagExportDir, *flagFormat, *flagWireframe = -1, "", "", false },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	*flagConfig = writeConfig(t, "graphics:\n  width: 1600\n  height: 900\n")
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	*flagConfig = writeConfig(t, "export:\n  format: gif\n")
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Export.Format = "tga"
	cfg.Graphics.Background = [3]float32{1, 0.5, 0}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loadFromFile: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip = %+v, want %+v", loaded, cfg)
	}
}
