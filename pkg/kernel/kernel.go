// Package kernel defines the geometry kernel used by the extrusion engine:
// a membership backend deciding which grid cells lie inside a region, the
// unit prism emitted per filled cell, and the triangle mesh they are
// collected into. Implementations (raster, sdfx) sit behind the Kernel
// interface so the engine does not depend on how membership is computed.
package kernel

import (
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/relief/pkg/geom"
)

// Membership answers inside/outside queries for one prepared shape.
type Membership interface {
	// Inside reports whether p is inside the outer boundary (boundary
	// included) and not inside or on any hole boundary.
	Inside(p v2.Vec) bool
}

// Kernel is the abstract membership backend.
type Kernel interface {
	// Name identifies the backend in logs and configuration.
	Name() string

	// Prepare builds a membership tester for s. Preparation is done once
	// per shape so per-cell queries stay cheap.
	Prepare(s geom.Shape) Membership
}

// MembershipFunc adapts a plain function to Membership.
type MembershipFunc func(p v2.Vec) bool

// Inside calls f(p).
func (f MembershipFunc) Inside(p v2.Vec) bool {
	return f(p)
}
