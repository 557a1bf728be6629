// Package config handles posetool configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Faultbox/midgard-pose/internal/player"
	"github.com/Faultbox/midgard-pose/internal/pose"
)

// Config holds all posetool settings.
type Config struct {
	Playback   PlaybackConfig   `yaml:"playback" toml:"playback"`
	Simulation SimulationConfig `yaml:"simulation" toml:"simulation"`
	Crowd      CrowdConfig      `yaml:"crowd" toml:"crowd"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
}

// PlaybackConfig holds clip playback settings.
type PlaybackConfig struct {
	Mode        string   `yaml:"mode" toml:"mode"`               // once | repeat
	Speed       float32  `yaml:"speed" toml:"speed"`             // Time scale applied by Advance
	Clips       []string `yaml:"clips" toml:"clips"`             // Empty plays every clip
	Composition string   `yaml:"composition" toml:"composition"` // decomposed | multiply
}

// SimulationConfig holds fixed-step simulation settings.
type SimulationConfig struct {
	FrameRate int      `yaml:"frame_rate" toml:"frame_rate"`
	Duration  Duration `yaml:"duration" toml:"duration"`
}

// CrowdConfig holds parallel evaluation settings.
type CrowdConfig struct {
	Players int `yaml:"players" toml:"players"`
	Workers int `yaml:"workers" toml:"workers"` // 0 selects NumCPU-1
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Duration is a time.Duration that reads "1.5s" style strings or plain seconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Seconds returns the duration in seconds.
func (d Duration) Seconds() float32 {
	return float32(time.Duration(d).Seconds())
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Playback: PlaybackConfig{
			Mode:        "repeat",
			Speed:       1.0,
			Composition: "decomposed",
		},
		Simulation: SimulationConfig{
			FrameRate: 60,
			Duration:  Duration(2 * time.Second),
		},
		Crowd: CrowdConfig{
			Players: 64,
			Workers: 0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	var errs []error
	if _, err := player.ParseMode(c.Playback.Mode); err != nil {
		errs = append(errs, fmt.Errorf("playback.mode: %w", err))
	}
	if _, err := pose.ParseComposition(c.Playback.Composition); err != nil {
		errs = append(errs, fmt.Errorf("playback.composition: %w", err))
	}
	if c.Playback.Speed <= 0 {
		errs = append(errs, fmt.Errorf("playback.speed must be positive, got %v", c.Playback.Speed))
	}
	if c.Simulation.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("simulation.frame_rate must be positive, got %d", c.Simulation.FrameRate))
	}
	if c.Simulation.Duration <= 0 {
		errs = append(errs, fmt.Errorf("simulation.duration must be positive, got %v", time.Duration(c.Simulation.Duration)))
	}
	if c.Crowd.Players <= 0 {
		errs = append(errs, fmt.Errorf("crowd.players must be positive, got %d", c.Crowd.Players))
	}
	if c.Crowd.Workers < 0 {
		errs = append(errs, fmt.Errorf("crowd.workers must not be negative, got %d", c.Crowd.Workers))
	}
	return errors.Join(errs...)
}

// PlayerOptions converts the playback section into player options.
func (c *Config) PlayerOptions() (player.Options, error) {
	mode, err := player.ParseMode(c.Playback.Mode)
	if err != nil {
		return player.Options{}, err
	}
	comp, err := pose.ParseComposition(c.Playback.Composition)
	if err != nil {
		return player.Options{}, err
	}
	return player.Options{
		Mode:        mode,
		Speed:       c.Playback.Speed,
		Composition: comp,
		Clips:       c.Playback.Clips,
	}, nil
}

// FrameStep returns the simulation time step in seconds.
func (c *Config) FrameStep() float32 {
	return 1 / float32(c.Simulation.FrameRate)
}

// Frames returns the number of frames the simulation runs.
func (c *Config) Frames() int {
	return int(c.Simulation.Duration.Seconds()*float32(c.Simulation.FrameRate) + 0.5)
}
