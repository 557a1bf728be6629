package config

import (
	"flag"
	"strings"
)

var (
	flagConfig      = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile     = flag.String("log-file", "", "Write JSON logs to this file")
	flagMode        = flag.String("mode", "", "Playback mode: once or repeat")
	flagSpeed       = flag.Float64("speed", 0, "Playback speed multiplier")
	flagComposition = flag.String("composition", "", "Channel composition: decomposed or multiply")
	flagClips       = flag.String("clips", "", "Comma-separated clip names to play")
	flagFrameRate   = flag.Int("fps", 0, "Simulation frame rate")
	flagWorkers     = flag.Int("workers", -1, "Crowd worker count (0 selects NumCPU-1)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
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
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagMode != "" {
		cfg.Playback.Mode = *flagMode
	}
	if *flagSpeed > 0 {
		cfg.Playback.Speed = float32(*flagSpeed)
	}
	if *flagComposition != "" {
		cfg.Playback.Composition = *flagComposition
	}
	if *flagClips != "" {
		cfg.Playback.Clips = splitList(*flagClips)
	}
	if *flagFrameRate > 0 {
		cfg.Simulation.FrameRate = *flagFrameRate
	}
	if *flagWorkers >= 0 {
		cfg.Crowd.Workers = *flagWorkers
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
