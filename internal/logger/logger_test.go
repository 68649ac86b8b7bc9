package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func quietFile(t *testing.T, level, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	cfg := FileConfig{Path: path, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1}
	if err := InitWithFileConfig(level, cfg, false); err != nil {
		t.Fatalf("InitWithFileConfig: %v", err)
	}
	return path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	Sync()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	return string(content)
}

func TestLogRotation(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "viewer.log")

	// 1MB is the smallest size lumberjack rotates at
	cfg := FileConfig{Path: logFile, MaxSizeMB: 1, MaxBackups: 2, MaxAgeDays: 1}
	if err := InitWithFileConfig("debug", cfg, false); err != nil {
		t.Fatalf("InitWithFileConfig: %v", err)
	}
	defer Sync()

	payload := strings.Repeat("x", 200)
	for i := 0; i < 8000; i++ {
		Sugar.Infof("decoded texture %d: %s", i, payload)
	}
	Sync()

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading log dir: %v", err)
	}

	rotated := 0
	for _, f := range files {
		name := f.Name()
		if name == "viewer.log" || !strings.HasPrefix(name, "viewer") {
			continue
		}
		rotated++
		// viewer-YYYY-MM-DDTHH-MM-SS.SSS.log
		if !strings.Contains(name, "-20") {
			t.Errorf("rotated file %s lacks a timestamp", name)
		}
	}
	if rotated == 0 {
		t.Error("no rotated files found")
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			path := quietFile(t, tt.level, tt.level+".log")

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")

			content := readLog(t, path)
			for _, exp := range tt.expected {
				if !strings.Contains(content, exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(content, exc) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestNamed(t *testing.T) {
	path := quietFile(t, "info", "named.log")

	Named("scene").Warn("unknown blending mode", zap.Uint32("mode", 7))

	content := readLog(t, path)
	for _, want := range []string{"scene", `"component": "scene"`, `"mode": 7`, "unknown blending mode"} {
		if !strings.Contains(content, want) {
			t.Errorf("log %q missing %q", content, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/pmviewer.log")

	if cfg.Path != "/tmp/pmviewer.log" {
		t.Errorf("expected path /tmp/pmviewer.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 20 || cfg.MaxBackups != 5 || cfg.MaxAgeDays != 14 {
		t.Errorf("rotation = %d MB, %d backups, %d days", cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}
