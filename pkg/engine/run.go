package engine

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/chazu/relief/pkg/kernel"
	"github.com/chazu/relief/pkg/session"
	"github.com/chazu/relief/pkg/vision"
)

// Export records one mesh file written by a plan.
type Export struct {
	Path      string
	Triangles int
}

// Report summarizes a plan run.
type Report struct {
	Exports []Export
	// Ignored lists region ids that enable or disable steps named but
	// the session did not know at that point.
	Ignored []int
}

// Runner applies plans to a session.
type Runner struct {
	Session *session.Session
	// Detector serves detect steps. A nil Detector only accepts contour
	// files (vision.Files).
	Detector vision.Detector
	// BaseDir resolves relative paths in the plan. Empty means the
	// working directory.
	BaseDir string
	Logger  *slog.Logger
}

// Run applies the steps in order and stops at the first failing one.
// Unknown region ids are not failures; they are collected in the report.
func (r *Runner) Run(p *Plan) (*Report, error) {
	if r.Session == nil {
		return nil, fmt.Errorf("engine: runner has no session")
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rep := &Report{}
	for i, step := range p.Steps {
		logger.Debug("running step", "index", i, "step", step.String())
		if err := r.apply(step, rep); err != nil {
			return rep, fmt.Errorf("engine: step %d %s: %w", i+1, step, err)
		}
	}
	return rep, nil
}

func (r *Runner) apply(step Step, rep *Report) error {
	s := r.Session
	switch step.Kind {
	case StepDetect:
		if step.Threshold != nil {
			return s.DetectAt(r.detector(), r.resolve(step.Path), *step.Threshold)
		}
		return s.Detect(r.detector(), r.resolve(step.Path))

	case StepContours:
		set, err := vision.LoadFile(r.resolve(step.Path))
		if err != nil {
			return err
		}
		s.Load(set)
		return nil

	case StepThreshold:
		return s.SetThreshold(int(step.Value))

	case StepMinArea:
		s.SetMinArea(step.Value)
		return nil

	case StepCellSize:
		return s.SetCellSize(step.Value)

	case StepHeight:
		return s.SetHeight(step.Value)

	case StepKernel:
		return s.SetKernel(step.Name)

	case StepCaps:
		s.SetCaps(step.Base, step.Top)
		return nil

	case StepEnable, StepDisable:
		enabled := step.Kind == StepEnable
		for _, id := range step.IDs {
			if !s.Toggle(id, enabled) {
				rep.Ignored = append(rep.Ignored, id)
			}
		}
		return nil

	case StepEnableAll, StepDisableAll:
		s.SetAll(step.Kind == StepEnableAll)
		return nil

	case StepExtrude:
		return r.extrude(step, rep)
	}
	return fmt.Errorf("unknown step kind %q", step.Kind)
}

func (r *Runner) extrude(step Step, rep *Report) error {
	s := r.Session
	if step.CellSize != nil {
		if err := s.SetCellSize(*step.CellSize); err != nil {
			return err
		}
	}
	if step.Height != nil {
		if err := s.SetHeight(*step.Height); err != nil {
			return err
		}
	}

	path := step.Path
	if path == "" {
		path = s.Config().Output
	}
	path = r.resolve(path)

	var (
		mesh *kernel.Mesh
		err  error
	)
	if step.IDs == nil {
		mesh, err = s.Export(path)
	} else {
		mesh, err = s.ExportRegions(path, step.IDs)
	}
	if err != nil {
		return err
	}
	rep.Exports = append(rep.Exports, Export{Path: path, Triangles: mesh.TriangleCount()})
	return nil
}

func (r *Runner) detector() vision.Detector {
	if r.Detector == nil {
		return vision.Files
	}
	return r.Detector
}

func (r *Runner) resolve(path string) string {
	if r.BaseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.BaseDir, path)
}
