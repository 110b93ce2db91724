package kernel

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an ordered triangle soup. Triangles are appended during extrusion
// and never deduplicated; shared vertices and coincident faces between
// neighbouring cells are kept.
type Mesh struct {
	Name      string          `json:"name"`
	Triangles []sdf.Triangle3 `json:"triangles"`
}

// NewMesh returns an empty mesh with the given solid name.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// Append adds triangles to the end of the mesh.
func (m *Mesh) Append(tris ...sdf.Triangle3) {
	m.Triangles = append(m.Triangles, tris...)
}

// VertexCount returns the number of vertices. Vertices are not shared, so
// this is always three per triangle.
func (m *Mesh) VertexCount() int {
	return len(m.Triangles) * 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

// BoundingBox returns the axis-aligned bounds of all vertices. ok is false
// for an empty mesh.
func (m *Mesh) BoundingBox() (box sdf.Box3, ok bool) {
	if m.IsEmpty() {
		return sdf.Box3{}, false
	}
	inf := math.Inf(1)
	min := v3.Vec{X: inf, Y: inf, Z: inf}
	max := v3.Vec{X: -inf, Y: -inf, Z: -inf}
	for _, t := range m.Triangles {
		for _, v := range t {
			min = v3.Vec{X: math.Min(min.X, v.X), Y: math.Min(min.Y, v.Y), Z: math.Min(min.Z, v.Z)}
			max = v3.Vec{X: math.Max(max.X, v.X), Y: math.Max(max.Y, v.Y), Z: math.Max(max.Z, v.Z)}
		}
	}
	return sdf.Box3{Min: min, Max: max}, true
}

// Volume returns the signed volume enclosed by the mesh using the
// divergence theorem. Coincident opposite faces between filled neighbours
// cancel, so a voxel mesh yields cells x footprint x height.
func (m *Mesh) Volume() float64 {
	var sum float64
	for _, t := range m.Triangles {
		a, b, c := toR3(t[0]), toR3(t[1]), toR3(t[2])
		sum += r3.Dot(a, r3.Cross(b, c))
	}
	return sum / 6
}

// Normal returns the unit normal of t following its winding. ok is false for
// degenerate triangles.
func Normal(t sdf.Triangle3) (n v3.Vec, ok bool) {
	a, b, c := toR3(t[0]), toR3(t[1]), toR3(t[2])
	cross := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	length := r3.Norm(cross)
	if length == 0 || math.IsNaN(length) {
		return v3.Vec{}, false
	}
	u := r3.Scale(1/length, cross)
	return v3.Vec{X: u.X, Y: u.Y, Z: u.Z}, true
}

func toR3(v v3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}
