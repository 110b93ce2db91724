package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// boundaryEpsilon is the tolerance used when deciding whether a query point
// lies on a contour edge.
const boundaryEpsilon = 1e-9

// SignedArea returns the shoelace area of the contour. The sign follows the
// vertex orientation; contours with fewer than three vertices have zero
// area.
func SignedArea(c Contour) float64 {
	if len(c) < 3 {
		return 0
	}
	var twice int64
	n := len(c)
	for i := 0; i < n; i++ {
		a, b := c[i], c[(i+1)%n]
		twice += int64(a.X)*int64(b.Y) - int64(b.X)*int64(a.Y)
	}
	return float64(twice) / 2
}

// Area returns the unsigned area of the contour.
func Area(c Contour) float64 {
	return math.Abs(SignedArea(c))
}

// ContainsPoint tests p against the contour using the winding number rule.
// Points on an edge or vertex are reported as inside. Contours with fewer
// than three vertices contain only the points lying on them.
func ContainsPoint(c Contour, p v2.Vec) bool {
	n := len(c)
	if n == 0 {
		return false
	}

	winding := 0
	for i := 0; i < n; i++ {
		a := c[i].Vec()
		b := c[(i+1)%n].Vec()

		if onSegment(a, b, p) {
			return true
		}

		cross := crossProduct(a, b, p)
		if a.Y <= p.Y {
			// Upward crossing with p strictly left of the edge.
			if b.Y > p.Y && cross > 0 {
				winding++
			}
		} else if b.Y <= p.Y && cross < 0 {
			// Downward crossing with p strictly right of the edge.
			winding--
		}
	}

	if n < 3 {
		return false
	}
	return winding != 0
}

// onSegment reports whether p lies on the closed segment a-b.
func onSegment(a, b, p v2.Vec) bool {
	if math.Abs(crossProduct(a, b, p)) > boundaryEpsilon {
		return false
	}
	return p.X >= math.Min(a.X, b.X)-boundaryEpsilon &&
		p.X <= math.Max(a.X, b.X)+boundaryEpsilon &&
		p.Y >= math.Min(a.Y, b.Y)-boundaryEpsilon &&
		p.Y <= math.Max(a.Y, b.Y)+boundaryEpsilon
}

// crossProduct computes the z component of (b-a) x (p-a).
func crossProduct(a, b, p v2.Vec) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (p.X-a.X)*(b.Y-a.Y)
}
