package config

import "flag"

// Flags is the flag set shared by meshtool subcommands.
var Flags = flag.NewFlagSet("meshtool", flag.ContinueOnError)

var (
	flagConfig    = Flags.String("config", "", "Path to config file")
	flagDebug     = Flags.Bool("debug", false, "Enable debug logging")
	flagWorkers   = Flags.Int("workers", -1, "Worker goroutines (0 = inline)")
	flagAngle     = Flags.Float64("angle", -1, "Smoothing angle in degrees")
	flagCache     = Flags.Int("cache", 0, "Vertex cache size")
	flagClockwise = Flags.Bool("clockwise", false, "Use clockwise front faces")
	flagPack      = Flags.Bool("pack", false, "Pack attribute pairs")
)

// ParseFlags parses subcommand flags. Positional arguments remain in
// Flags.Args().
func ParseFlags(args []string) error {
	return Flags.Parse(args)
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
	if *flagWorkers >= 0 {
		cfg.Async.Workers = *flagWorkers
	}
	if *flagAngle >= 0 {
		cfg.Pipeline.SmoothingAngle = float32(*flagAngle)
	}
	if *flagCache > 0 {
		cfg.Pipeline.CacheSize = *flagCache
	}
	if *flagClockwise {
		cfg.Pipeline.Clockwise = true
	}
	if *flagPack {
		cfg.Pipeline.Pack = true
	}
}
