package contour

import "github.com/chazu/relief/pkg/geom"

// None is the no-link sentinel used in hierarchy entries.
const None = -1

// Entry is one hierarchy row, index-aligned with the contour list.
type Entry struct {
	Next       int `json:"next"`
	Prev       int `json:"prev"`
	FirstChild int `json:"first_child"`
	Parent     int `json:"parent"`
}

// NewEntry builds an entry from the (next, previous, first-child, parent)
// tuple layout used by contour extraction routines.
func NewEntry(next, prev, firstChild, parent int) Entry {
	return Entry{Next: next, Prev: prev, FirstChild: firstChild, Parent: parent}
}

// IsTopLevel reports whether the entry has no parent.
func (e Entry) IsTopLevel() bool {
	return e.Parent == None
}

// Hierarchy is the parent/child/sibling linkage for a contour list.
type Hierarchy []Entry

// Set is the output of one detection pass.
type Set struct {
	Contours  []geom.Contour `json:"contours"`
	Hierarchy Hierarchy      `json:"hierarchy"`
}

// Len returns the number of usable index-aligned contour/hierarchy pairs.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return min(len(s.Contours), len(s.Hierarchy))
}

// IsEmpty reports whether the set holds no usable contours.
func (s *Set) IsEmpty() bool {
	return s.Len() == 0
}

// Contour returns the contour at index i, or nil when i is out of range.
func (s *Set) Contour(i int) geom.Contour {
	if s == nil || i < 0 || i >= s.Len() {
		return nil
	}
	return s.Contours[i]
}

// children walks the first-child/next-sibling chain of entry id. Out of
// range links end the walk and a revisited index stops a cyclic chain.
// Only entries whose parent is id are collected.
func (h Hierarchy) children(id, n int) []int {
	var out []int
	seen := map[int]bool{id: true}
	child := h[id].FirstChild
	for child != None && child >= 0 && child < n && !seen[child] {
		seen[child] = true
		if h[child].Parent == id {
			out = append(out, child)
		}
		child = h[child].Next
	}
	return out
}
