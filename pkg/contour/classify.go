package contour

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/chazu/relief/pkg/geom"
)

// Region is a top-level contour together with its direct holes.
type Region struct {
	ID    int         `json:"id"`    // index of the outer contour
	Holes []int       `json:"holes"` // indices of direct children
	Area  float64     `json:"area"`  // effective area: outer minus holes
	Key   Fingerprint `json:"key"`   // content fingerprint of the outer contour
}

// Label renders the region for display lists. It is never parsed back.
func (r Region) Label() string {
	if len(r.Holes) == 0 {
		return fmt.Sprintf("Contour = %d", r.ID)
	}
	holes := make([]string, len(r.Holes))
	for i, h := range r.Holes {
		holes[i] = fmt.Sprint(h)
	}
	return fmt.Sprintf("Contour = %d, Holes = [%s]", r.ID, strings.Join(holes, ", "))
}

// Classification is the result of one classifier pass.
type Classification struct {
	// Regions lists the regions that passed the area filter, in input
	// index order.
	Regions []Region
	// Excluded holds the top-level ids whose effective area fell below the
	// minimum. They stay addressable; ids are never renumbered.
	Excluded map[int]bool

	index  map[int]int // region id -> position in Regions
	parent map[int]int // hole id -> region id
}

// Classify builds the outer-to-holes mapping from a contour list and its
// hierarchy. Every top-level contour lands either in Regions or in
// Excluded. Malformed input degrades to fewer (or no) regions and never
// fails: only the index-aligned prefix of contours and hierarchy is read,
// and out-of-range links are ignored. A negative minArea is clamped to 0.
func Classify(contours []geom.Contour, h Hierarchy, minArea float64) *Classification {
	if minArea < 0 || math.IsNaN(minArea) {
		minArea = 0
	}

	c := &Classification{
		Excluded: make(map[int]bool),
		index:    make(map[int]int),
		parent:   make(map[int]int),
	}

	n := min(len(contours), len(h))
	for i := 0; i < n; i++ {
		if !h[i].IsTopLevel() {
			continue
		}

		holes := h.children(i, n)
		area := EffectiveArea(contours, i, holes)
		// NaN compares false against everything; treat it as too small.
		if !(area >= minArea) {
			c.Excluded[i] = true
			continue
		}

		c.index[i] = len(c.Regions)
		for _, hole := range holes {
			c.parent[hole] = i
		}
		c.Regions = append(c.Regions, Region{
			ID:    i,
			Holes: holes,
			Area:  area,
			Key:   FingerprintOf(contours[i]),
		})
	}

	return c
}

// ClassifySet is Classify over a detection Set. A nil set yields an empty
// classification.
func ClassifySet(s *Set, minArea float64) *Classification {
	if s == nil {
		return Classify(nil, nil, minArea)
	}
	return Classify(s.Contours, s.Hierarchy, minArea)
}

// EffectiveArea returns the area of contour id minus the areas of the given
// hole contours. Hole indices outside the contour list are skipped.
func EffectiveArea(contours []geom.Contour, id int, holes []int) float64 {
	if id < 0 || id >= len(contours) {
		return 0
	}
	holeAreas := make([]float64, 0, len(holes))
	for _, hole := range holes {
		if hole < 0 || hole >= len(contours) {
			continue
		}
		holeAreas = append(holeAreas, geom.Area(contours[hole]))
	}
	return geom.Area(contours[id]) - floats.Sum(holeAreas)
}

// Len returns the number of regions that passed the filter.
func (c *Classification) Len() int {
	return len(c.Regions)
}

// IsRegion reports whether id names a region of this pass.
func (c *Classification) IsRegion(id int) bool {
	_, ok := c.index[id]
	return ok
}

// Region returns the region with the given id.
func (c *Classification) Region(id int) (Region, bool) {
	i, ok := c.index[id]
	if !ok {
		return Region{}, false
	}
	return c.Regions[i], true
}

// HoleParent returns the region owning hole id.
func (c *Classification) HoleParent(id int) (int, bool) {
	p, ok := c.parent[id]
	return p, ok
}

// IDs returns the region ids in classification order.
func (c *Classification) IDs() []int {
	ids := make([]int, len(c.Regions))
	for i, r := range c.Regions {
		ids[i] = r.ID
	}
	return ids
}

// Shape resolves a region against the contours it was classified from.
func (c *Classification) Shape(contours []geom.Contour, id int) (geom.Shape, bool) {
	r, ok := c.Region(id)
	if !ok || r.ID >= len(contours) {
		return geom.Shape{}, false
	}
	s := geom.Shape{Outer: contours[r.ID]}
	for _, hole := range r.Holes {
		if hole < len(contours) {
			s.Holes = append(s.Holes, contours[hole])
		}
	}
	return s, true
}
