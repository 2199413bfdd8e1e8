// Package main is the entry point for the biomeforge terrain viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/biomeforge/internal/config"
	"github.com/Faultbox/biomeforge/internal/logger"
	"github.com/Faultbox/biomeforge/internal/world"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Biomeforge Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	v, err := newViewer(cfg)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	defer v.Close()

	// A map given on the command line replaces the configured default.
	start := cfg.Terrain.DefaultMap
	if args := config.Args(); len(args) > 0 {
		start = world.ResolveMap(args[0])
	}
	v.world.LoadTerrain(start)

	v.Run()
	logger.Info("viewer closed normally")
}
