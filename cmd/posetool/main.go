// posetool is a CLI utility for inspecting and playing glTF skeletal animation.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-pose/internal/config"
	"github.com/Faultbox/midgard-pose/internal/logger"
)

func main() {
	// Global flags come before the command
	config.ParseFlags()

	args := flag.Args()
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

	logger.Sugar.Debugf("Config: %+v", cfg)

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		err = cmdInfo(cfg, args)
	case "pose":
		err = cmdPose(cfg, args)
	case "simulate", "sim":
		err = cmdSimulate(cfg, args)
	case "bounds":
		err = cmdBounds(cfg, args)
	case "crowd":
		err = cmdCrowd(cfg, args)
	case "watch":
		err = cmdWatch(cfg, args)
	case "help", "-h", "--help":
		printUsage()
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
	fmt.Fprintln(stdout, `posetool - glTF skeletal animation utility

Usage:
  posetool [global options] <command> [options] <model.gltf|model.glb>

Global options:
  -config <path>        Config file (.yaml or .toml)
  -debug                Enable debug logging
  -log-file <path>      Also write JSON logs to a rotating file
  -mode once|repeat     Playback mode
  -speed <x>            Playback speed multiplier
  -composition <name>   decomposed or multiply
  -clips a,b            Restrict playback to these clips
  -fps <n>              Simulation frame rate
  -workers <n>          Crowd workers (0 = NumCPU-1)

Commands:
  info <model>                           Show nodes, skins, clips and bounds
  pose [-t sec] [-clip name] <model>     Print world and joint matrices at a time
  simulate [-duration d] <model>         Step playback at a fixed rate
  bounds [-wireframe] <model>            Show bind-pose bounds and box vertices
  crowd [-n players] [-frames n] <model> Time parallel evaluation of many players
  watch <model>                          Reload and summarize the model on change

Examples:
  posetool info fox.glb
  posetool pose -t 0.5 -clip Walk fox.glb
  posetool -mode once simulate -duration 3s fox.glb
  posetool -workers 4 crowd -n 256 fox.glb`)
}
