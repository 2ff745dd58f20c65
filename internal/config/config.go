// Package config handles meshtool configuration loading and management.
package config

import "time"

// Config holds all pipeline settings.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Async    AsyncConfig    `yaml:"async"`
	Scene    SceneConfig    `yaml:"scene"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PipelineConfig selects and tunes the derive and optimize passes.
type PipelineConfig struct {
	SmoothingAngle   float32 `yaml:"smoothing_angle"` // Degrees; 0 smooths everything
	Tangents         bool    `yaml:"tangents"`
	Basis            bool    `yaml:"basis"`
	CacheSize        int     `yaml:"cache_size"`
	Transparent      bool    `yaml:"transparent"`
	IslandAttributes int     `yaml:"island_attributes"` // 0 disables islands
	IslandPrimitives int     `yaml:"island_primitives"`
	DedupThreshold   float32 `yaml:"dedup_threshold"`
	DedupDepth       int     `yaml:"dedup_depth"`
	Merge            bool    `yaml:"merge"`
	Pack             bool    `yaml:"pack"`
	Clockwise        bool    `yaml:"clockwise"`
}

// AsyncConfig holds the worker pool settings.
type AsyncConfig struct {
	Workers int           `yaml:"workers"` // 0 runs inline
	Timeout time.Duration `yaml:"timeout"`
}

// SceneConfig describes the procedural scene to process.
type SceneConfig struct {
	Name   string        `yaml:"name"`
	Shapes []ShapeConfig `yaml:"shapes"`
}

// ShapeConfig places one procedural geometry under its own node.
type ShapeConfig struct {
	Name      string     `yaml:"name"`
	Kind      string     `yaml:"kind"` // quad, cube, strip or grid
	Size      float32    `yaml:"size"`
	Count     int        `yaml:"count"` // Strip triangles or grid cells per side
	Translate [3]float32 `yaml:"translate"`
	Scale     [3]float32 `yaml:"scale"` // Zero components mean 1
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			SmoothingAngle:   30,
			Tangents:         true,
			Basis:            false,
			CacheSize:        32,
			Transparent:      false,
			IslandAttributes: 0,
			IslandPrimitives: 0,
			DedupThreshold:   1e-5,
			DedupDepth:       8,
			Merge:            true,
			Pack:             false,
			Clockwise:        false,
		},
		Async: AsyncConfig{
			Workers: 4,
			Timeout: 30 * time.Second,
		},
		Scene: SceneConfig{
			Name: "scene",
			Shapes: []ShapeConfig{
				{Name: "ground", Kind: "grid", Size: 1, Count: 16},
				{Name: "crate", Kind: "cube", Size: 1, Translate: [3]float32{2, 0.5, 0}},
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
