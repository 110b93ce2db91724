// Package extrude rasterizes planar regions into a uniform grid and emits
// one axis-aligned prism per interior cell. The result is a voxel
// approximation of the extruded region set, not exact swept geometry.
package extrude

import (
	"errors"
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/relief/pkg/geom"
	"github.com/chazu/relief/pkg/kernel"
)

// DefaultCellSize and DefaultHeight match the interactive defaults.
const (
	DefaultCellSize = 10
	DefaultHeight   = 100
	DefaultName     = "extruded_mesh"
)

// gridEpsilon keeps full cells that land exactly on the far bounding-box
// edge from being lost to floating-point division.
const gridEpsilon = 1e-9

var (
	// ErrInvalidCellSize is returned for a cell size that is not a
	// positive finite number.
	ErrInvalidCellSize = errors.New("extrude: cell size must be positive")
	// ErrInvalidHeight is returned for a height that is not a positive
	// finite number.
	ErrInvalidHeight = errors.New("extrude: height must be positive")
)

// Options controls a single extrusion run.
type Options struct {
	CellSize float64
	Height   float64
	// FillBase and FillTop emit the bottom and top faces of every
	// prism. Turning either off leaves the mesh open.
	FillBase bool
	FillTop  bool
	// Name is the solid name carried by the mesh.
	Name string
}

// DefaultOptions returns the interactive defaults: 10 unit cells, height
// 100, closed prisms.
func DefaultOptions() Options {
	return Options{
		CellSize: DefaultCellSize,
		Height:   DefaultHeight,
		FillBase: true,
		FillTop:  true,
		Name:     DefaultName,
	}
}

// Validate reports whether cell size and height are usable.
func (o Options) Validate() error {
	if !(o.CellSize > 0) || math.IsInf(o.CellSize, 0) {
		return fmt.Errorf("%w (got %v)", ErrInvalidCellSize, o.CellSize)
	}
	if !(o.Height > 0) || math.IsInf(o.Height, 0) {
		return fmt.Errorf("%w (got %v)", ErrInvalidHeight, o.Height)
	}
	return nil
}

func (o Options) caps() kernel.Caps {
	return kernel.Caps{Base: o.FillBase, Top: o.FillTop}
}

// ShapeStats records what one shape contributed.
type ShapeStats struct {
	CellsTested int
	CellsFilled int
}

// Stats summarizes an extrusion run.
type Stats struct {
	Shapes      []ShapeStats
	CellsTested int
	CellsFilled int
}

// Extrude rasterizes every shape independently and concatenates the emitted
// prisms. An empty shape list yields an empty mesh. Invalid options are
// rejected before any work is done.
func Extrude(shapes []geom.Shape, k kernel.Kernel, opts Options) (*kernel.Mesh, error) {
	m, _, err := ExtrudeWithStats(shapes, k, opts)
	return m, err
}

// ExtrudeWithStats is Extrude that also reports per-shape cell counts.
func ExtrudeWithStats(shapes []geom.Shape, k kernel.Kernel, opts Options) (*kernel.Mesh, *Stats, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	if k == nil {
		return nil, nil, errors.New("extrude: nil kernel")
	}

	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	mesh := kernel.NewMesh(name)
	stats := &Stats{Shapes: make([]ShapeStats, 0, len(shapes))}

	for _, s := range shapes {
		ss := extrudeShape(mesh, s, k, opts)
		stats.Shapes = append(stats.Shapes, ss)
		stats.CellsTested += ss.CellsTested
		stats.CellsFilled += ss.CellsFilled
	}

	return mesh, stats, nil
}

// extrudeShape walks the outer bounding box of s from its minimum corner in
// cell-sized steps. Only whole cells are visited, so a box narrower than
// one cell contributes nothing. Each cell is classified by its centre.
func extrudeShape(mesh *kernel.Mesh, s geom.Shape, k kernel.Kernel, opts Options) ShapeStats {
	var ss ShapeStats

	box, ok := s.Outer.Bounds()
	if !ok {
		return ss
	}

	c := opts.CellSize
	nx := cellCount(box.Max.X-box.Min.X, c)
	ny := cellCount(box.Max.Y-box.Min.Y, c)
	if nx == 0 || ny == 0 {
		return ss
	}

	membership := k.Prepare(s)
	caps := opts.caps()
	half := c / 2

	for i := 0; i < nx; i++ {
		x := box.Min.X + float64(i)*c
		for j := 0; j < ny; j++ {
			y := box.Min.Y + float64(j)*c
			ss.CellsTested++
			if !membership.Inside(v2.Vec{X: x + half, Y: y + half}) {
				continue
			}
			ss.CellsFilled++
			mesh.Append(kernel.Prism(x, y, c, opts.Height, caps)...)
		}
	}

	return ss
}

// cellCount returns how many whole cells of size c fit in extent.
func cellCount(extent, c float64) int {
	if extent <= 0 {
		return 0
	}
	return int(math.Floor(extent/c + gridEpsilon))
}
