package geom

import (
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Point is a contour vertex on the source image's pixel grid.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Vec converts the point to floating-point coordinates.
func (p Point) Vec() v2.Vec {
	return v2.Vec{X: float64(p.X), Y: float64(p.Y)}
}

// Contour is a closed polyline. The edge from the last vertex back to the
// first is implicit.
type Contour []Point

// Rect builds an axis-aligned rectangular contour with its minimum corner at
// (x, y), wound counter-clockwise in image coordinates.
func Rect(x, y, w, h int) Contour {
	return Contour{Pt(x, y), Pt(x+w, y), Pt(x+w, y+h), Pt(x, y+h)}
}

// Bounds returns the axis-aligned bounding box of the contour. ok is false
// for an empty contour.
func (c Contour) Bounds() (box sdf.Box2, ok bool) {
	if len(c) == 0 {
		return sdf.Box2{}, false
	}
	min, max := c[0].Vec(), c[0].Vec()
	for _, p := range c[1:] {
		v := p.Vec()
		if v.X < min.X {
			min.X = v.X
		}
		if v.Y < min.Y {
			min.Y = v.Y
		}
		if v.X > max.X {
			max.X = v.X
		}
		if v.Y > max.Y {
			max.Y = v.Y
		}
	}
	return sdf.Box2{Min: min, Max: max}, true
}

// Vecs returns the contour vertices as floating-point vectors.
func (c Contour) Vecs() []v2.Vec {
	out := make([]v2.Vec, len(c))
	for i, p := range c {
		out[i] = p.Vec()
	}
	return out
}

// Shape is a region ready for rasterization: an outer boundary minus its
// holes.
type Shape struct {
	Outer Contour
	Holes []Contour
}

// Inside reports whether p lies inside the outer boundary (boundary
// included) and outside every hole. A point on a hole boundary counts as
// inside the hole and is therefore excluded.
func (s Shape) Inside(p v2.Vec) bool {
	if !ContainsPoint(s.Outer, p) {
		return false
	}
	for _, h := range s.Holes {
		if ContainsPoint(h, p) {
			return false
		}
	}
	return true
}
