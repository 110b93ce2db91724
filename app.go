package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/chazu/relief/pkg/config"
	"github.com/chazu/relief/pkg/engine"
	"github.com/chazu/relief/pkg/kernel"
	"github.com/chazu/relief/pkg/session"
	"github.com/chazu/relief/pkg/stl"
	"github.com/chazu/relief/pkg/vision"
	"github.com/chazu/relief/pkg/vision/cvdetect"
)

// App is the backend shared by the CLI commands. It owns one session and
// the script engine that drives it.
type App struct {
	engine   *engine.Engine
	session  *session.Session
	detector vision.Detector
	logger   *slog.Logger
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// ExportData describes one mesh file written by a script.
type ExportData struct {
	Path      string `json:"path"`
	Triangles int    `json:"triangles"`
}

// EvalResult is the full result of running a script.
type EvalResult struct {
	Steps    []string        `json:"steps"`
	Exports  []ExportData    `json:"exports"`
	Rows     []session.Row   `json:"rows"`
	Ignored  []int           `json:"ignored"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// MeshInfo summarizes a mesh file.
type MeshInfo struct {
	Name      string     `json:"name"`
	Triangles int        `json:"triangles"`
	Min       [3]float64 `json:"min"`
	Max       [3]float64 `json:"max"`
	Volume    float64    `json:"volume"`
}

// NewApp creates an App around a fresh session. Images are traced with
// OpenCV; ".json" inputs are read as contour files.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	s, err := session.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &App{
		engine:   engine.NewEngine(),
		session:  s,
		detector: vision.Auto{Image: cvdetect.Detector{}},
		logger:   logger,
	}, nil
}

// Session exposes the underlying session.
func (a *App) Session() *session.Session {
	return a.session
}

// Open loads an image or contour file into the session.
func (a *App) Open(path string) error {
	return a.session.Detect(a.detector, path)
}

// Evaluate runs script source against the session. Relative paths in the
// script resolve against baseDir.
func (a *App) Evaluate(source, baseDir string) EvalResult {
	result := EvalResult{
		Steps:    []string{},
		Exports:  []ExportData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the script into a plan.
	res, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.String()})
	}

	// Step 2: Convert eval errors to the result format.
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	for _, s := range res.Plan.Steps {
		result.Steps = append(result.Steps, s.String())
	}

	// Step 3: Apply the plan to the session.
	runner := &engine.Runner{
		Session:  a.session,
		Detector: a.detector,
		BaseDir:  baseDir,
		Logger:   a.logger,
	}
	rep, err := runner.Run(res.Plan)
	if rep != nil {
		for _, e := range rep.Exports {
			result.Exports = append(result.Exports, ExportData{Path: e.Path, Triangles: e.Triangles})
		}
		result.Ignored = rep.Ignored
	}
	if err != nil {
		log.Printf("Run error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
	}

	// Step 4: Report the region list as the script left it.
	result.Rows = a.session.Rows()
	return result
}

// Inspect reads an ASCII STL file and summarizes it.
func Inspect(path string) (*MeshInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("inspect: %w", err)
	}
	defer f.Close()
	m, err := stl.Read(f)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}
	return describe(m), nil
}

func describe(m *kernel.Mesh) *MeshInfo {
	info := &MeshInfo{
		Name:      m.Name,
		Triangles: m.TriangleCount(),
		Volume:    m.Volume(),
	}
	if box, ok := m.BoundingBox(); ok {
		info.Min = [3]float64{box.Min.X, box.Min.Y, box.Min.Z}
		info.Max = [3]float64{box.Max.X, box.Max.Y, box.Max.Z}
	}
	return info
}
