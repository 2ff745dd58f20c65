package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"gopkg.in/yaml.v3"
)

// ErrInvalid reports a setting outside its accepted range.
var ErrInvalid = errors.New("invalid config")

// ShapeKinds lists the procedural shapes a scene may use.
var ShapeKinds = []string{"quad", "cube", "strip", "grid"}

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges the pipeline relies on.
func (c *Config) Validate() error {
	var errs []error
	p := c.Pipeline
	if p.SmoothingAngle < 0 || p.SmoothingAngle > 180 {
		errs = append(errs, fmt.Errorf("%w: smoothing_angle %v not in [0, 180]", ErrInvalid, p.SmoothingAngle))
	}
	if p.CacheSize < 3 {
		errs = append(errs, fmt.Errorf("%w: cache_size %d below 3", ErrInvalid, p.CacheSize))
	}
	if p.IslandAttributes > 0 && (p.IslandAttributes < 3 || p.IslandPrimitives < 1) {
		errs = append(errs, fmt.Errorf("%w: island limits %d/%d", ErrInvalid, p.IslandAttributes, p.IslandPrimitives))
	}
	if p.DedupDepth < 1 || p.DedupThreshold < 0 {
		errs = append(errs, fmt.Errorf("%w: dedup depth %d threshold %v", ErrInvalid, p.DedupDepth, p.DedupThreshold))
	}
	if c.Async.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers %d", ErrInvalid, c.Async.Workers))
	}
	for _, s := range c.Scene.Shapes {
		if !slices.Contains(ShapeKinds, s.Kind) {
			errs = append(errs, fmt.Errorf("%w: shape %q has unknown kind %q", ErrInvalid, s.Name, s.Kind))
		}
		if s.Size <= 0 {
			errs = append(errs, fmt.Errorf("%w: shape %q has size %v", ErrInvalid, s.Name, s.Size))
		}
	}
	return errors.Join(errs...)
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./meshtool.yaml",
		filepath.Join(ConfigDir(), "meshtool.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "MidgardMesh")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "MidgardMesh")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "midgard-mesh")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "midgard-mesh")
	}
}

// loadFromFile merges a YAML file over cfg. Unknown keys are rejected.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
