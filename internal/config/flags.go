package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagAssets = flag.String("assets", "", "Extra asset root directory")
	flagAddr   = flag.String("addr", "", "HTTP listen address")
	flagSeed   = flag.Int64("seed", 0, "Population seed (0 keeps the configured seed)")
	flagWidth  = flag.Int("width", 0, "Window width")
	flagHeight = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments, e.g. a subcommand and its operands.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagAssets != "" {
		cfg.Assets.Roots = append(cfg.Assets.Roots, *flagAssets)
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if *flagSeed != 0 {
		cfg.Population.Seed = *flagSeed
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
}
