package extrude_test

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/relief/pkg/extrude"
	"github.com/chazu/relief/pkg/geom"
	"github.com/chazu/relief/pkg/kernel"
	"github.com/chazu/relief/pkg/kernel/raster"
	"github.com/chazu/relief/pkg/kernel/sdfx"
)

// newKernel returns a fresh raster kernel for testing.
func newKernel() kernel.Kernel {
	return raster.New()
}

func opts(cell, height float64) extrude.Options {
	o := extrude.DefaultOptions()
	o.CellSize = cell
	o.Height = height
	return o
}

func TestEmptyShapeSet(t *testing.T) {
	m, err := extrude.Extrude(nil, newKernel(), extrude.DefaultOptions())
	if err != nil {
		t.Fatalf("Extrude failed: %v", err)
	}
	if !m.IsEmpty() {
		t.Errorf("expected empty mesh, got %d triangles", m.TriangleCount())
	}
}

func TestSquareTenByTen(t *testing.T) {
	for _, c := range []float64{1, 2.5, 10} {
		h := 7.0
		side := int(10 * c)
		if float64(side) != 10*c {
			// Keep contour vertices on the integer grid.
			continue
		}
		square := geom.Shape{Outer: geom.Rect(0, 0, side, side)}

		m, stats, err := extrude.ExtrudeWithStats([]geom.Shape{square}, newKernel(), opts(c, h))
		if err != nil {
			t.Fatalf("c=%v: Extrude failed: %v", c, err)
		}
		if stats.CellsFilled != 100 {
			t.Errorf("c=%v: expected 100 prisms, got %d", c, stats.CellsFilled)
		}
		if m.TriangleCount() != 1200 {
			t.Errorf("c=%v: expected 1200 triangles, got %d", c, m.TriangleCount())
		}
		for _, tri := range m.Triangles {
			for _, v := range tri {
				if v.X < 0 || v.X > float64(side) || v.Y < 0 || v.Y > float64(side) {
					t.Fatalf("c=%v: vertex %v outside bounding box", c, v)
				}
				if v.Z != 0 && v.Z != h {
					t.Fatalf("c=%v: vertex z=%v not in {0, %v}", c, v.Z, h)
				}
			}
		}
		want := 100 * c * c * h
		if got := m.Volume(); math.Abs(got-want) > 1e-6*want {
			t.Errorf("c=%v: volume = %v, want %v", c, got, want)
		}
	}
}

func TestEachPrismIsCellSized(t *testing.T) {
	square := geom.Shape{Outer: geom.Rect(0, 0, 30, 30)}
	m, err := extrude.Extrude([]geom.Shape{square}, newKernel(), opts(10, 5))
	if err != nil {
		t.Fatalf("Extrude failed: %v", err)
	}
	if m.TriangleCount()%kernel.PrismTriangles != 0 {
		t.Fatalf("triangle count %d not a multiple of %d", m.TriangleCount(), kernel.PrismTriangles)
	}
	for i := 0; i < m.TriangleCount(); i += kernel.PrismTriangles {
		prism := &kernel.Mesh{Triangles: m.Triangles[i : i+kernel.PrismTriangles]}
		box, _ := prism.BoundingBox()
		dx, dy, dz := box.Max.X-box.Min.X, box.Max.Y-box.Min.Y, box.Max.Z-box.Min.Z
		if dx != 10 || dy != 10 || dz != 5 {
			t.Errorf("prism %d is %vx%vx%v, want 10x10x5", i/kernel.PrismTriangles, dx, dy, dz)
		}
	}
}

func TestHoleIsNotFilled(t *testing.T) {
	ring := geom.Shape{
		Outer: geom.Rect(0, 0, 100, 100),
		Holes: []geom.Contour{geom.Rect(40, 40, 20, 20)},
	}
	_, stats, err := extrude.ExtrudeWithStats([]geom.Shape{ring}, newKernel(), opts(10, 10))
	if err != nil {
		t.Fatalf("Extrude failed: %v", err)
	}
	// 100 cells minus the 2x2 block under the hole.
	if stats.CellsFilled != 96 {
		t.Errorf("expected 96 filled cells, got %d", stats.CellsFilled)
	}
	if stats.CellsTested != 100 {
		t.Errorf("expected 100 tested cells, got %d", stats.CellsTested)
	}
}

func TestGridOriginIsBoundingBoxMinimum(t *testing.T) {
	square := geom.Shape{Outer: geom.Rect(13, 27, 20, 20)}
	m, err := extrude.Extrude([]geom.Shape{square}, newKernel(), opts(10, 1))
	if err != nil {
		t.Fatalf("Extrude failed: %v", err)
	}
	box, ok := m.BoundingBox()
	if !ok {
		t.Fatal("expected geometry")
	}
	if box.Min.X != 13 || box.Min.Y != 27 {
		t.Errorf("grid origin = (%v, %v), want (13, 27)", box.Min.X, box.Min.Y)
	}
}

func TestSubCellRegionContributesNothing(t *testing.T) {
	tests := []struct {
		name  string
		shape geom.Shape
	}{
		{"narrow", geom.Shape{Outer: geom.Rect(0, 0, 5, 100)}},
		{"short", geom.Shape{Outer: geom.Rect(0, 0, 100, 9)}},
		{"point", geom.Shape{Outer: geom.Contour{geom.Pt(3, 3)}}},
		{"empty", geom.Shape{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := extrude.Extrude([]geom.Shape{tt.shape}, newKernel(), opts(10, 10))
			if err != nil {
				t.Fatalf("Extrude failed: %v", err)
			}
			if !m.IsEmpty() {
				t.Errorf("expected no triangles, got %d", m.TriangleCount())
			}
		})
	}
}

func TestShapesConcatenateWithoutDedup(t *testing.T) {
	a := geom.Shape{Outer: geom.Rect(0, 0, 20, 20)}
	// Overlaps a on purpose; the engine does not defend against it.
	b := geom.Shape{Outer: geom.Rect(10, 0, 20, 20)}
	m, stats, err := extrude.ExtrudeWithStats([]geom.Shape{a, b}, newKernel(), opts(10, 1))
	if err != nil {
		t.Fatalf("Extrude failed: %v", err)
	}
	if len(stats.Shapes) != 2 {
		t.Fatalf("expected 2 shape stats, got %d", len(stats.Shapes))
	}
	if m.TriangleCount() != 8*kernel.PrismTriangles {
		t.Errorf("expected %d triangles, got %d", 8*kernel.PrismTriangles, m.TriangleCount())
	}
}

func TestInvalidOptions(t *testing.T) {
	square := []geom.Shape{{Outer: geom.Rect(0, 0, 10, 10)}}
	tests := []struct {
		name   string
		cell   float64
		height float64
		want   error
	}{
		{"zero cell", 0, 10, extrude.ErrInvalidCellSize},
		{"negative cell", -1, 10, extrude.ErrInvalidCellSize},
		{"NaN cell", math.NaN(), 10, extrude.ErrInvalidCellSize},
		{"infinite cell", math.Inf(1), 10, extrude.ErrInvalidCellSize},
		{"zero height", 10, 0, extrude.ErrInvalidHeight},
		{"negative height", 10, -3, extrude.ErrInvalidHeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := extrude.Extrude(square, newKernel(), opts(tt.cell, tt.height))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if m != nil {
				t.Error("expected nil mesh on invalid options")
			}
		})
	}
}

func TestInvalidOptionsWithEmptyShapes(t *testing.T) {
	if _, err := extrude.Extrude(nil, newKernel(), opts(0, 10)); err == nil {
		t.Error("expected an error for zero cell size even with no shapes")
	}
}

func TestOpenCaps(t *testing.T) {
	square := []geom.Shape{{Outer: geom.Rect(0, 0, 10, 10)}}
	o := opts(10, 10)
	o.FillBase = false
	o.FillTop = false
	m, err := extrude.Extrude(square, newKernel(), o)
	if err != nil {
		t.Fatalf("Extrude failed: %v", err)
	}
	if m.TriangleCount() != 8 {
		t.Errorf("expected 8 wall triangles, got %d", m.TriangleCount())
	}
}

func TestKernelsProduceSameMesh(t *testing.T) {
	ring := []geom.Shape{{
		Outer: geom.Contour{geom.Pt(0, 0), geom.Pt(90, 0), geom.Pt(90, 60), geom.Pt(45, 90), geom.Pt(0, 60)},
		Holes: []geom.Contour{geom.Rect(30, 20, 30, 20)},
	}}
	a, err := extrude.Extrude(ring, raster.New(), opts(10, 10))
	if err != nil {
		t.Fatalf("raster Extrude failed: %v", err)
	}
	b, err := extrude.Extrude(ring, sdfx.New(), opts(10, 10))
	if err != nil {
		t.Fatalf("sdfx Extrude failed: %v", err)
	}
	if a.TriangleCount() != b.TriangleCount() {
		t.Errorf("raster emitted %d triangles, sdfx %d", a.TriangleCount(), b.TriangleCount())
	}
}

func TestMeshName(t *testing.T) {
	o := opts(10, 10)
	o.Name = ""
	m, err := extrude.Extrude(nil, newKernel(), o)
	if err != nil {
		t.Fatalf("Extrude failed: %v", err)
	}
	if m.Name != extrude.DefaultName {
		t.Errorf("Name = %q, want %q", m.Name, extrude.DefaultName)
	}
}
