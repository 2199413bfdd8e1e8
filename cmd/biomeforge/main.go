// biomeforge builds terrain and population from elevation and biome maps.
package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/biomeforge/internal/config"
	"github.com/Faultbox/biomeforge/internal/logger"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
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

	command := args[0]
	args = args[1:]

	switch command {
	case "presets", "ls":
		err = cmdPresets(os.Stdout)
	case "build":
		err = cmdBuild(cfg, args, os.Stdout)
	case "export":
		err = cmdExport(cfg, args, os.Stdout)
	case "config":
		err = cmdConfig(cfg, args, os.Stdout)
	case "serve":
		err = cmdServe(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`biomeforge - terrain and biome population builder

Usage:
  biomeforge [flags] <command> [options]

Commands:
  presets                        List the stock maps
  build <map>                    Load a map and print its biome and population summary
  export <map> <out.obj>         Write the synthesized terrain as Wavefront OBJ
  serve [-addr host:port]        Serve the HTTP API
  config save [path]             Write the effective config (default: user config file)
  config path                    Print the user config file location

A map is a preset name (japan, sri-lanka, ...) or a file name in the
texture directory.

Flags:
  -config <file>   Config file (default: ./biomeforge.yaml, ./config.yaml)
  -assets <dir>    Extra asset root, searched first
  -seed <n>        Population seed
  -debug           Debug logging

Examples:
  biomeforge presets
  biomeforge build japan
  biomeforge -seed 7 export ireland ireland.obj
  biomeforge serve -addr :9090`)
}
