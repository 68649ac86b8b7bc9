// pmtool inspects and converts Paper Mario model, world and texture
// containers from the command line.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/pmviewer/internal/assets"
	"github.com/Faultbox/pmviewer/internal/config"
	"github.com/Faultbox/pmviewer/internal/logger"
	"github.com/Faultbox/pmviewer/internal/scene"
	"github.com/Faultbox/pmviewer/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

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

	switch command {
	case "info":
		err = cmdInfo(cfg, args)
	case "dump":
		err = cmdDump(cfg, args)
	case "textures", "tex":
		err = cmdTextures(cfg, args)
	case "obj":
		err = cmdOBJ(cfg, args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pmtool - Paper Mario model, world and texture utility

Usage:
  pmtool <command> [options]

Commands:
  info <file>                     Show container type, nodes, triangles and warnings
  dump [-o file] <file>           Write the full block/table report (default <file>.info.txt)
  textures [-format f] <file> [dir]  Export decoded textures (model, world or texture container)
  obj <file> [dir]                Export the scene as Wavefront OBJ with materials

Examples:
  pmtool info a/mario
  pmtool dump -o - a/mario
  pmtool textures -format webp a/mario-
  pmtool obj m/gor_01/d ./out`)
}

func newLoader(cfg *config.Config, optionalTextures bool) *assets.Loader {
	return assets.NewLoader(assets.Options{
		Logger: logger.Named("assets"),
		Scene: scene.Options{
			Logger:     logger.Named("scene"),
			RootRecord: scene.RootAt(cfg.Scene.RootRecord),
			MaxDepth:   cfg.Scene.MaxDepth,
		},
		World:            formats.PMWOptions{MaxNodes: cfg.Scene.MaxWorldNodes},
		OptionalTextures: optionalTextures,
	})
}

func usageError(usage string) error {
	return fmt.Errorf("usage: pmtool %s", usage)
}
