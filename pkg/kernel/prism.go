package kernel

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// PrismTriangles is the number of triangles in a closed unit prism.
const PrismTriangles = 12

// Caps selects which horizontal faces a prism carries.
type Caps struct {
	Base bool // bottom face at z=0
	Top  bool // top face at z=height
}

// Closed is a prism with both base and top.
var Closed = Caps{Base: true, Top: true}

// Prism returns the triangles of an axis-aligned box with footprint
// [x, x+size] x [y, y+size] and height [0, height]. Every face is split into
// two triangles wound counter-clockwise as seen from outside the box.
func Prism(x, y, size, height float64, caps Caps) []sdf.Triangle3 {
	p0 := v3.Vec{X: x, Y: y, Z: 0}
	p1 := v3.Vec{X: x + size, Y: y, Z: 0}
	p2 := v3.Vec{X: x + size, Y: y + size, Z: 0}
	p3 := v3.Vec{X: x, Y: y + size, Z: 0}

	p4 := v3.Vec{X: x, Y: y, Z: height}
	p5 := v3.Vec{X: x + size, Y: y, Z: height}
	p6 := v3.Vec{X: x + size, Y: y + size, Z: height}
	p7 := v3.Vec{X: x, Y: y + size, Z: height}

	tris := make([]sdf.Triangle3, 0, PrismTriangles)
	if caps.Base {
		tris = append(tris, sdf.Triangle3{p0, p2, p1}, sdf.Triangle3{p0, p3, p2})
	}
	if caps.Top {
		tris = append(tris, sdf.Triangle3{p4, p5, p6}, sdf.Triangle3{p4, p6, p7})
	}
	return append(tris,
		sdf.Triangle3{p0, p1, p5}, sdf.Triangle3{p0, p5, p4}, // front (y = min)
		sdf.Triangle3{p1, p2, p6}, sdf.Triangle3{p1, p6, p5}, // right (x = max)
		sdf.Triangle3{p2, p3, p7}, sdf.Triangle3{p2, p7, p6}, // back (y = max)
		sdf.Triangle3{p3, p0, p4}, sdf.Triangle3{p3, p4, p7}, // left (x = min)
	)
}
