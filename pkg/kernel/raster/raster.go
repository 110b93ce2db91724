// Package raster implements kernel.Kernel with a winding-number
// point-in-polygon test evaluated directly on the contour vertices.
package raster

import (
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/relief/pkg/geom"
	"github.com/chazu/relief/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// Name is the configuration name of this backend.
const Name = "raster"

// Kernel is the default membership backend.
type Kernel struct{}

// New returns a raster kernel.
func New() *Kernel {
	return &Kernel{}
}

// Name returns "raster".
func (k *Kernel) Name() string {
	return Name
}

// Prepare captures the shape and its outer bounds.
func (k *Kernel) Prepare(s geom.Shape) kernel.Membership {
	box, ok := s.Outer.Bounds()
	return &membership{shape: s, box: box, empty: !ok}
}

type membership struct {
	shape geom.Shape
	box   sdf.Box2
	empty bool
}

// Inside rejects points outside the outer bounds before running the
// polygon tests.
func (m *membership) Inside(p v2.Vec) bool {
	if m.empty {
		return false
	}
	if p.X < m.box.Min.X || p.X > m.box.Max.X || p.Y < m.box.Min.Y || p.Y > m.box.Max.Y {
		return false
	}
	return m.shape.Inside(p)
}
