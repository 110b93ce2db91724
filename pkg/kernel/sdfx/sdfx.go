// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. Each contour becomes a 2D
// polygon SDF; a non-positive distance means inside or on the boundary.
package sdfx

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/relief/pkg/geom"
	"github.com/chazu/relief/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// Name is the configuration name of this backend.
const Name = "sdfx"

// boundaryTolerance absorbs floating-point noise in the distance
// evaluation so that points on an edge count as inside.
const boundaryTolerance = 1e-9

// region is a contour paired with its polygon SDF. sdf is nil when sdfx
// rejects the contour, in which case the geom test answers instead.
type region struct {
	contour geom.Contour
	sdf     sdf.SDF2
}

func newRegion(c geom.Contour) region {
	r := region{contour: c}
	verts := dedupe(c.Vecs())
	if len(verts) < 3 {
		return r
	}
	s, err := sdf.Polygon2D(verts)
	if err != nil {
		return r
	}
	r.sdf = s
	return r
}

// contains reports whether p is inside or on the contour.
func (r region) contains(p v2.Vec) bool {
	if r.sdf == nil {
		return geom.ContainsPoint(r.contour, p)
	}
	d := r.sdf.Evaluate(p)
	if math.IsNaN(d) {
		return geom.ContainsPoint(r.contour, p)
	}
	return d <= boundaryTolerance
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// Name returns "sdfx".
func (k *SdfxKernel) Name() string {
	return Name
}

// Prepare builds polygon SDFs for the outer boundary and every hole.
func (k *SdfxKernel) Prepare(s geom.Shape) kernel.Membership {
	m := &membership{outer: newRegion(s.Outer)}
	m.box, m.ok = s.Outer.Bounds()
	for _, h := range s.Holes {
		m.holes = append(m.holes, newRegion(h))
	}
	return m
}

type membership struct {
	outer region
	holes []region
	box   sdf.Box2
	ok    bool
}

// Inside evaluates the outer SDF, then every hole SDF.
func (m *membership) Inside(p v2.Vec) bool {
	if !m.ok {
		return false
	}
	if p.X < m.box.Min.X || p.X > m.box.Max.X || p.Y < m.box.Min.Y || p.Y > m.box.Max.Y {
		return false
	}
	if !m.outer.contains(p) {
		return false
	}
	for _, h := range m.holes {
		if h.contains(p) {
			return false
		}
	}
	return true
}

// dedupe drops consecutive repeated vertices, including a closing vertex
// equal to the first. Zero-length edges are not accepted by the polygon
// builder.
func dedupe(verts []v2.Vec) []v2.Vec {
	out := make([]v2.Vec, 0, len(verts))
	for _, v := range verts {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
