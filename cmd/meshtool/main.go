// meshtool builds procedural scenes and runs the mesh optimization pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-mesh/internal/config"
	"github.com/Faultbox/midgard-mesh/internal/logger"
	"github.com/Faultbox/midgard-mesh/internal/pipeline"
	"github.com/Faultbox/midgard-mesh/pkg/mesh"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run":
		cmdRun(args)
	case "info":
		cmdInfo(args)
	case "init":
		cmdInit(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - mesh derive and optimize pipeline

Usage:
  meshtool <command> [options]

Commands:
  run [options] [report.yaml]   Build the configured scene and run every pass
  info [options]                Show the configured scene without running passes
  init [path]                   Write the default config

Options:
  -config <file>    Config file (default ./meshtool.yaml)
  -debug            Debug logging
  -workers <n>      Worker goroutines, 0 runs inline
  -angle <deg>      Smoothing angle
  -cache <n>        Vertex cache size
  -clockwise        Clockwise front faces
  -pack             Pack attribute pairs

Examples:
  meshtool init ./meshtool.yaml
  meshtool run -workers 8 report.yaml
  meshtool info -config scenes/yard.yaml`)
}

// setup parses flags, loads the config and starts logging.
func setup(args []string) *config.Config {
	if err := config.ParseFlags(args); err != nil {
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logFile := cfg.Logging.LogFile
	fileCfg := logger.FileConfig{}
	if logFile != "" {
		fileCfg = logger.DefaultFileConfig(logFile)
		fileCfg.JSON = cfg.Logging.JSON
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func cmdRun(args []string) {
	cfg := setup(args)
	defer logger.Sync()

	m, err := pipeline.BuildScene(cfg.Scene)
	if err != nil {
		logger.Fatal("build scene", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if cfg.Async.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Async.Timeout)
		defer cancel()
	}

	var exec mesh.Executor
	if cfg.Async.Workers > 0 {
		exec = mesh.NewWorkerExecutor(cfg.Async.Workers)
	}
	logger.Info("running pipeline",
		zap.String("scene", m.Name()),
		zap.Int("geometries", len(m.Geometries())),
		zap.Int("workers", cfg.Async.Workers))

	rep, err := pipeline.NewRunner(cfg.Pipeline, exec, logger.Named("pipeline")).Run(ctx, m)
	if rep != nil {
		printReport(rep)
	}
	if err != nil {
		logger.Fatal("pipeline failed", zap.Error(err))
	}

	if out := config.Flags.Arg(0); out != "" {
		data, err := yaml.Marshal(rep)
		if err != nil {
			logger.Fatal("encode report", zap.Error(err))
		}
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			logger.Fatal("create report directory", zap.Error(err))
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			logger.Fatal("write report", zap.Error(err))
		}
		fmt.Printf("\nReport: %s\n", out)
	}
}

func printReport(rep *pipeline.Report) {
	fmt.Println("Passes:")
	for _, s := range rep.Steps {
		status := "ok"
		if !s.OK {
			status = "incomplete"
			if s.Failed > 0 {
				status = fmt.Sprintf("failed on %d", s.Failed)
			}
		}
		fmt.Printf("  %-12s %-16s %v\n", s.Name, status, s.Duration)
	}
	fmt.Println()
	printInfo("Before", rep.Before)
	printInfo("After", rep.After)
	if len(rep.Geometries) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Geometries:")
	for _, g := range rep.Geometries {
		fmt.Printf("  %-20s %6d verts %6d prims  acmr %.3f  x%d  %s\n",
			g.Name, g.Vertices, g.Primitives, g.ACMR, g.Placements, strings.Join(g.Attributes, " "))
	}
}

func printInfo(label string, info mesh.Info) {
	fmt.Printf("%-7s %d nodes, %d geometries, %d vertices, %d primitives\n",
		label+":", info.Nodes, info.Geometries, info.Vertices, info.Primitives)
}

func cmdInfo(args []string) {
	cfg := setup(args)
	defer logger.Sync()

	m, err := pipeline.BuildScene(cfg.Scene)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Scene: %s\n", m.Name())
	printInfo("Total", m.Info())
	fmt.Println()
	for _, n := range m.Nodes() {
		for _, g := range n.Geometries() {
			t := n.GlobalTransform().Translation()
			fmt.Printf("  %-20s %-12s at (%g, %g, %g)  %d prims\n",
				n.Name(), g.Name(), t.X, t.Y, t.Z, g.NumPrimitives())
		}
	}
	if err := m.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "\nInvalid scene: %v\n", err)
		os.Exit(1)
	}
}

func cmdInit(args []string) {
	cfg := config.Default()
	var err error
	if len(args) > 0 {
		err = cfg.SaveTo(args[0])
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Config written")
}
