package kernel

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/relief/pkg/geom"
)

// --- Mesh helper method tests ---

func TestMeshCounts(t *testing.T) {
	tests := []struct {
		name      string
		triangles []sdf.Triangle3
		wantTris  int
		wantVerts int
	}{
		{"empty", nil, 0, 0},
		{"one prism", Prism(0, 0, 1, 1, Closed), 12, 36},
		{"two prisms", append(Prism(0, 0, 1, 1, Closed), Prism(1, 0, 1, 1, Closed)...), 24, 72},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Triangles: tt.triangles}
			if got := m.TriangleCount(); got != tt.wantTris {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.wantTris)
			}
			if got := m.VertexCount(); got != tt.wantVerts {
				t.Errorf("VertexCount() = %d, want %d", got, tt.wantVerts)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := NewMesh("x")
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := NewMesh("x")
		m.Append(Prism(0, 0, 1, 1, Closed)...)
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

func TestMeshBoundingBox(t *testing.T) {
	m := NewMesh("x")
	if _, ok := m.BoundingBox(); ok {
		t.Error("BoundingBox() ok = true for empty mesh")
	}
	m.Append(Prism(10, 20, 5, 7, Closed)...)
	m.Append(Prism(15, 20, 5, 7, Closed)...)
	box, ok := m.BoundingBox()
	if !ok {
		t.Fatal("BoundingBox() ok = false")
	}
	if box.Min != (v3.Vec{X: 10, Y: 20, Z: 0}) {
		t.Errorf("Min = %v", box.Min)
	}
	if box.Max != (v3.Vec{X: 20, Y: 25, Z: 7}) {
		t.Errorf("Max = %v", box.Max)
	}
}

// --- Prism tests ---

func TestPrismOutwardWinding(t *testing.T) {
	tris := Prism(0, 0, 2, 3, Closed)
	if len(tris) != PrismTriangles {
		t.Fatalf("expected %d triangles, got %d", PrismTriangles, len(tris))
	}
	centre := v3.Vec{X: 1, Y: 1, Z: 1.5}
	for i, tri := range tris {
		n, ok := Normal(tri)
		if !ok {
			t.Fatalf("triangle %d is degenerate", i)
		}
		// The normal must point away from the box centre.
		fc := v3.Vec{
			X: (tri[0].X + tri[1].X + tri[2].X) / 3,
			Y: (tri[0].Y + tri[1].Y + tri[2].Y) / 3,
			Z: (tri[0].Z + tri[1].Z + tri[2].Z) / 3,
		}
		out := v3.Vec{X: fc.X - centre.X, Y: fc.Y - centre.Y, Z: fc.Z - centre.Z}
		if n.X*out.X+n.Y*out.Y+n.Z*out.Z <= 0 {
			t.Errorf("triangle %d normal %v points inward", i, n)
		}
	}
}

func TestPrismVolume(t *testing.T) {
	m := &Mesh{Triangles: Prism(3, 4, 2, 5, Closed)}
	if got := m.Volume(); math.Abs(got-20) > 1e-9 {
		t.Errorf("Volume() = %v, want 20", got)
	}
}

func TestAdjacentPrismsVolumeAdds(t *testing.T) {
	m := NewMesh("x")
	m.Append(Prism(0, 0, 1, 1, Closed)...)
	m.Append(Prism(1, 0, 1, 1, Closed)...)
	if got := m.Volume(); math.Abs(got-2) > 1e-9 {
		t.Errorf("Volume() = %v, want 2", got)
	}
}

func TestPrismCaps(t *testing.T) {
	tests := []struct {
		name string
		caps Caps
		want int
	}{
		{"closed", Closed, 12},
		{"no base", Caps{Top: true}, 10},
		{"no top", Caps{Base: true}, 10},
		{"walls only", Caps{}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris := Prism(0, 0, 1, 1, tt.caps)
			if len(tris) != tt.want {
				t.Errorf("got %d triangles, want %d", len(tris), tt.want)
			}
			for _, tri := range tris {
				for _, v := range tri {
					if v.Z != 0 && v.Z != 1 {
						t.Fatalf("vertex z=%v outside {0, 1}", v.Z)
					}
				}
			}
		})
	}
}

func TestNormalDegenerate(t *testing.T) {
	p := v3.Vec{X: 1, Y: 1, Z: 1}
	if _, ok := Normal(sdf.Triangle3{p, p, p}); ok {
		t.Error("Normal() ok = true for a degenerate triangle")
	}
}

// --- Compile-time interface check with a stub kernel ---

// stubKernel is a minimal Kernel that proves the interface is satisfiable.
type stubKernel struct{}

func (stubKernel) Name() string { return "stub" }

func (stubKernel) Prepare(s geom.Shape) Membership {
	return MembershipFunc(s.Inside)
}

var _ Kernel = stubKernel{}
var _ Membership = MembershipFunc(nil)

func TestStubKernelPrepare(t *testing.T) {
	var k Kernel = stubKernel{}
	m := k.Prepare(geom.Shape{Outer: geom.Rect(0, 0, 10, 10)})
	if !m.Inside(v2.Vec{X: 5, Y: 5}) {
		t.Error("stub membership should contain the centre")
	}
	if m.Inside(v2.Vec{X: 50, Y: 5}) {
		t.Error("stub membership should reject far points")
	}
}
