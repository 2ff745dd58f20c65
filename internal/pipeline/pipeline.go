package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mesh/internal/config"
	"github.com/Faultbox/midgard-mesh/pkg/mesh"
)

// ErrInvalidMesh reports a mesh that fails validation after the passes.
var ErrInvalidMesh = errors.New("mesh failed validation")

// Step records one pass.
type Step struct {
	Name     string        `yaml:"name"`
	OK       bool          `yaml:"ok"`
	Failed   int           `yaml:"failed,omitempty"` // Geometries the pass rejected
	Duration time.Duration `yaml:"duration"`
}

// GeometryReport summarizes one geometry after the passes.
type GeometryReport struct {
	Name       string   `yaml:"name"`
	Vertices   int      `yaml:"vertices"`
	Primitives int      `yaml:"primitives"`
	Attributes []string `yaml:"attributes"`
	Optimized  bool     `yaml:"optimized"`
	ACMR       float32  `yaml:"acmr"`
	Placements int      `yaml:"placements"`
}

// Report describes a pipeline run.
type Report struct {
	Before     mesh.Info        `yaml:"before"`
	After      mesh.Info        `yaml:"after"`
	Steps      []Step           `yaml:"steps"`
	Geometries []GeometryReport `yaml:"geometries"`
}

// Runner applies the configured passes to meshes.
type Runner struct {
	cfg  config.PipelineConfig
	exec mesh.Executor
	log  *zap.Logger
}

// NewRunner creates a runner. A nil executor runs every pass inline.
func NewRunner(cfg config.PipelineConfig, exec mesh.Executor, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, exec: exec, log: log}
}

// Run derives normals and optional tangent frames, unifies the index
// spaces, optimizes the primitive order and the scene, and validates the
// result. Passes rejected by single geometries, such as tangents on a
// geometry without texture coordinates, are recorded and do not stop the
// run; cancellation does.
func (r *Runner) Run(ctx context.Context, m *mesh.Mesh) (*Report, error) {
	m.SetLogger(r.log.Named("mesh"))
	rep := &Report{Before: m.Info()}
	cfg := r.cfg

	steps := []struct {
		name    string
		enabled bool
		run     func(async *mesh.Async) bool
	}{
		{"normals", true, func(a *mesh.Async) bool {
			return m.CreateNormals(mesh.Force, cfg.SmoothingAngle, -1, a)
		}},
		{"tangents", cfg.Tangents, func(a *mesh.Async) bool {
			return m.CreateTangents(mesh.Force, -1, -1, -1, a)
		}},
		{"basis", cfg.Basis, func(a *mesh.Async) bool {
			return m.CreateBasis(mesh.Force, cfg.SmoothingAngle, -1, -1, -1, a)
		}},
		{"attributes", true, func(a *mesh.Async) bool {
			return m.OptimizeAttributes(-1, a)
		}},
		{"materials", true, func(*mesh.Async) bool {
			return m.OptimizeMaterials()
		}},
		{"indices", true, func(a *mesh.Async) bool {
			return m.OptimizeIndices(cfg.CacheSize, cfg.Transparent, -1, -1, a)
		}},
		{"islands", cfg.IslandAttributes > 0, func(a *mesh.Async) bool {
			return m.CreateIslands(cfg.IslandAttributes, cfg.IslandPrimitives, mesh.Force, -1, -1, a)
		}},
		{"geometries", true, func(*mesh.Async) bool {
			return m.OptimizeGeometries(cfg.DedupThreshold, cfg.DedupDepth)
		}},
		{"merge", cfg.Merge, func(*mesh.Async) bool {
			return m.MergeGeometries()
		}},
		{"winding", true, func(*mesh.Async) bool {
			return m.OptimizeWinding(cfg.Clockwise)
		}},
		{"order", true, func(*mesh.Async) bool {
			return m.OptimizeOrder()
		}},
		{"pack", cfg.Pack, func(*mesh.Async) bool {
			return m.PackAttributes(true)
		}},
		{"bounds", true, func(a *mesh.Async) bool {
			return m.CreateBounds(mesh.Force, -1, a)
		}},
	}

	for _, s := range steps {
		if !s.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("before %s: %w", s.name, err)
		}
		step, err := r.runStep(ctx, s.name, s.run)
		rep.Steps = append(rep.Steps, step)
		if err != nil {
			return rep, err
		}
	}

	if err := m.Validate(); err != nil {
		return rep, fmt.Errorf("%w: %w", ErrInvalidMesh, err)
	}

	rep.After = m.Info()
	rep.Geometries = r.geometryReports(m)
	return rep, nil
}

func (r *Runner) runStep(ctx context.Context, name string, run func(*mesh.Async) bool) (Step, error) {
	start := time.Now()
	step := Step{Name: name}

	var async *mesh.Async
	if r.exec != nil {
		async = mesh.NewAsync(ctx, r.exec)
	}
	step.OK = run(async)
	if async != nil {
		err := async.Wait()
		step.Failed = async.Failed()
		step.OK = err == nil
		if err != nil && !errors.Is(err, mesh.ErrTaskFailed) {
			step.Duration = time.Since(start)
			return step, fmt.Errorf("%s: %w", name, err)
		}
	}
	step.Duration = time.Since(start)

	if step.OK {
		r.log.Debug("pass finished", zap.String("pass", name), zap.Duration("took", step.Duration))
	} else {
		r.log.Info("pass incomplete", zap.String("pass", name), zap.Int("failed", step.Failed))
	}
	return step, nil
}

func (r *Runner) geometryReports(m *mesh.Mesh) []GeometryReport {
	placements := make(map[*mesh.Geometry]int)
	for _, n := range m.Nodes() {
		for _, g := range n.Geometries() {
			placements[g]++
		}
	}
	reports := make([]GeometryReport, 0, len(m.Geometries()))
	for _, g := range m.Geometries() {
		gr := GeometryReport{
			Name:       g.Name(),
			Primitives: g.NumPrimitives(),
			Optimized:  g.IsOptimized(),
			ACMR:       g.AverageCacheMissRatio(-1, r.cfg.CacheSize),
			Placements: placements[g],
		}
		if pos := g.Attribute(mesh.AttributePosition, -1); pos != nil {
			gr.Vertices = pos.Size()
		}
		for _, a := range g.Attributes() {
			gr.Attributes = append(gr.Attributes, fmt.Sprintf("%s%d:%s", a.Type(), a.Index(), a.Format()))
		}
		reports = append(reports, gr)
	}
	return reports
}
