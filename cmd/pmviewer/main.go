// pmviewer displays a model or world container in an OpenGL window.
package main

import (
	"fmt"
	"os"

	"github.com/gopxl/mainthread/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/pmviewer/internal/assets"
	"github.com/Faultbox/pmviewer/internal/config"
	"github.com/Faultbox/pmviewer/internal/logger"
	"github.com/Faultbox/pmviewer/internal/scene"
	"github.com/Faultbox/pmviewer/pkg/formats"
)

func main() {
	config.ParseFlags()
	if len(config.Args()) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: pmviewer [flags] <model or world file>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	code := 0
	mainthread.Run(func() {
		if err := run(cfg, config.Args()[0]); err != nil {
			logger.Error("viewer error", zap.Error(err))
			code = 1
		}
	})
	if code != 0 {
		logger.Sync()
		os.Exit(code)
	}
}

func run(cfg *config.Config, path string) error {
	loader := assets.NewLoader(assets.Options{
		Logger: logger.Named("assets"),
		Scene: scene.Options{
			Logger:     logger.Named("scene"),
			RootRecord: scene.RootAt(cfg.Scene.RootRecord),
			MaxDepth:   cfg.Scene.MaxDepth,
		},
		World:     formats.PMWOptions{MaxNodes: cfg.Scene.MaxWorldNodes},
		WriteInfo: true,
	})
	defer loader.Close()

	asset, err := loader.Load(path)
	if err != nil {
		return err
	}
	s := asset.Scene()
	logger.Info("loaded",
		zap.String("path", path),
		zap.Stringer("kind", asset.Kind),
		zap.Int("nodes", s.NodeCount()),
		zap.Int("triangles", s.TriangleCount()),
		zap.Int("warnings", len(s.Warnings)),
	)

	v, err := newViewer(cfg, s)
	if err != nil {
		return err
	}
	defer v.close()
	return v.loop()
}
