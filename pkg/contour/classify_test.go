package contour

import (
	"reflect"
	"testing"

	"github.com/chazu/relief/pkg/geom"
)

// ringSet builds two top-level regions: a 100x100 square with two holes
// (one of which has a nested island) and a small 5x5 speck.
//
//	0: outer square        parent -1, first child 1, next 4
//	1: hole A (20x20)      parent 0, next 2
//	2: hole B (10x10)      parent 0, first child 3
//	3: island in hole B    parent 2
//	4: speck (5x5)         parent -1, prev 0
func ringSet() ([]geom.Contour, Hierarchy) {
	contours := []geom.Contour{
		geom.Rect(0, 0, 100, 100),
		geom.Rect(10, 10, 20, 20),
		geom.Rect(60, 60, 10, 10),
		geom.Rect(62, 62, 4, 4),
		geom.Rect(200, 200, 5, 5),
	}
	h := Hierarchy{
		NewEntry(4, None, 1, None),
		NewEntry(2, None, None, 0),
		NewEntry(None, 1, 3, 0),
		NewEntry(None, None, None, 2),
		NewEntry(None, 0, None, None),
	}
	return contours, h
}

func TestClassifyRegionsAndHoles(t *testing.T) {
	contours, h := ringSet()
	c := Classify(contours, h, 100)

	if c.Len() != 1 {
		t.Fatalf("expected 1 region, got %d", c.Len())
	}
	r := c.Regions[0]
	if r.ID != 0 {
		t.Errorf("region id = %d, want 0", r.ID)
	}
	if !reflect.DeepEqual(r.Holes, []int{1, 2}) {
		t.Errorf("holes = %v, want [1 2]", r.Holes)
	}
	// Grandchild 3 is ignored: 10000 - 400 - 100.
	if r.Area != 9500 {
		t.Errorf("effective area = %v, want 9500", r.Area)
	}
	if !c.Excluded[4] {
		t.Error("speck (id 4) should be excluded")
	}
	if c.IsRegion(4) {
		t.Error("excluded id should not be a region")
	}
}

func TestClassifyEveryTopLevelPlacedOnce(t *testing.T) {
	contours, h := ringSet()
	for _, minArea := range []float64{-5, 0, 25, 26, 9500, 9501} {
		c := Classify(contours, h, minArea)
		for i, e := range h {
			if !e.IsTopLevel() {
				if c.IsRegion(i) || c.Excluded[i] {
					t.Errorf("minArea=%v: non top-level %d placed in output", minArea, i)
				}
				continue
			}
			if c.IsRegion(i) == c.Excluded[i] {
				t.Errorf("minArea=%v: id %d region=%v excluded=%v, want exactly one",
					minArea, i, c.IsRegion(i), c.Excluded[i])
			}
		}
	}
}

func TestClassifyNoHolesAreaEqualsOuter(t *testing.T) {
	contours := []geom.Contour{{geom.Pt(0, 0), geom.Pt(7, 0), geom.Pt(0, 9)}}
	h := Hierarchy{NewEntry(None, None, None, None)}
	c := Classify(contours, h, 0)
	if c.Len() != 1 {
		t.Fatalf("expected 1 region, got %d", c.Len())
	}
	if got, want := c.Regions[0].Area, geom.Area(contours[0]); got != want {
		t.Errorf("area = %v, want %v", got, want)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	contours, h := ringSet()
	a := Classify(contours, h, 30)
	b := Classify(contours, h, 30)
	if !reflect.DeepEqual(a.Regions, b.Regions) {
		t.Errorf("regions differ: %v vs %v", a.Regions, b.Regions)
	}
	if !reflect.DeepEqual(a.Excluded, b.Excluded) {
		t.Errorf("excluded differ: %v vs %v", a.Excluded, b.Excluded)
	}
}

func TestClassifyOrderFollowsIndex(t *testing.T) {
	contours := []geom.Contour{
		geom.Rect(0, 0, 50, 50),
		geom.Rect(100, 0, 10, 10),
		geom.Rect(200, 0, 30, 30),
	}
	h := Hierarchy{
		NewEntry(1, None, None, None),
		NewEntry(2, 0, None, None),
		NewEntry(None, 1, None, None),
	}
	c := Classify(contours, h, 0)
	if !reflect.DeepEqual(c.IDs(), []int{0, 1, 2}) {
		t.Errorf("IDs() = %v, want [0 1 2]", c.IDs())
	}
}

func TestClassifyNegativeMinAreaClamped(t *testing.T) {
	contours := []geom.Contour{{geom.Pt(0, 0), geom.Pt(10, 0)}}
	h := Hierarchy{NewEntry(None, None, None, None)}
	c := Classify(contours, h, -10)
	if c.Len() != 1 {
		t.Errorf("zero-area contour with clamped minArea should pass, got %d regions", c.Len())
	}
}

func TestClassifyDegenerateInput(t *testing.T) {
	tests := []struct {
		name      string
		contours  []geom.Contour
		hierarchy Hierarchy
		minArea   float64
		regions   int
	}{
		{"nil", nil, nil, 100, 0},
		{"contours without hierarchy", []geom.Contour{geom.Rect(0, 0, 50, 50)}, nil, 0, 0},
		{"hierarchy longer than contours", []geom.Contour{geom.Rect(0, 0, 50, 50)},
			Hierarchy{NewEntry(None, None, None, None), NewEntry(None, None, None, None)}, 0, 1},
		{"empty contour", []geom.Contour{{}}, Hierarchy{NewEntry(None, None, None, None)}, 1, 0},
		{"child link out of range", []geom.Contour{geom.Rect(0, 0, 50, 50)},
			Hierarchy{NewEntry(None, None, 7, None)}, 0, 1},
		{"self-intersecting outer", []geom.Contour{{geom.Pt(0, 0), geom.Pt(10, 10), geom.Pt(10, 0), geom.Pt(0, 10)}},
			Hierarchy{NewEntry(None, None, None, None)}, 1, 0},
		{"child link to top-level contour", []geom.Contour{geom.Rect(0, 0, 100, 100), geom.Rect(25, 25, 50, 50)},
			Hierarchy{NewEntry(1, None, 1, None), NewEntry(None, 0, None, None)}, 0, 2},
		{"contour is its own first child", []geom.Contour{geom.Rect(0, 0, 50, 50)},
			Hierarchy{NewEntry(None, None, 0, None)}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.contours, tt.hierarchy, tt.minArea)
			if c.Len() != tt.regions {
				t.Errorf("expected %d regions, got %d", tt.regions, c.Len())
			}
			for _, r := range c.Regions {
				for _, hole := range r.Holes {
					if hole == r.ID {
						t.Errorf("region %d lists itself as a hole", r.ID)
					}
					if _, ok := c.Region(hole); ok {
						t.Errorf("hole %d of region %d is also a region", hole, r.ID)
					}
					if tt.hierarchy[hole].Parent != r.ID {
						t.Errorf("hole %d has parent %d, want %d", hole, tt.hierarchy[hole].Parent, r.ID)
					}
				}
				if want := geom.Area(tt.contours[r.ID]); len(r.Holes) == 0 && r.Area != want {
					t.Errorf("region %d area = %v, want %v", r.ID, r.Area, want)
				}
			}
		})
	}
}

func TestClassifyCyclicSiblingChain(t *testing.T) {
	contours := []geom.Contour{
		geom.Rect(0, 0, 100, 100),
		geom.Rect(10, 10, 10, 10),
		geom.Rect(50, 50, 10, 10),
	}
	h := Hierarchy{
		NewEntry(None, None, 1, None),
		NewEntry(2, 2, None, 0),
		NewEntry(1, 1, None, 0), // points back at 1
	}
	c := Classify(contours, h, 0)
	r, ok := c.Region(0)
	if !ok {
		t.Fatal("expected region 0")
	}
	if !reflect.DeepEqual(r.Holes, []int{1, 2}) {
		t.Errorf("holes = %v, want [1 2]", r.Holes)
	}
}

func TestClassificationLookups(t *testing.T) {
	contours, h := ringSet()
	c := Classify(contours, h, 0)

	if p, ok := c.HoleParent(2); !ok || p != 0 {
		t.Errorf("HoleParent(2) = %d, %v; want 0, true", p, ok)
	}
	if _, ok := c.HoleParent(3); ok {
		t.Error("grandchild 3 should not be a hole of any region")
	}

	s, ok := c.Shape(contours, 0)
	if !ok {
		t.Fatal("Shape(0) not found")
	}
	if len(s.Holes) != 2 {
		t.Errorf("shape holes = %d, want 2", len(s.Holes))
	}
	if _, ok := c.Shape(contours, 1); ok {
		t.Error("hole id should not resolve to a shape")
	}
}

func TestRegionLabel(t *testing.T) {
	tests := []struct {
		r    Region
		want string
	}{
		{Region{ID: 4}, "Contour = 4"},
		{Region{ID: 0, Holes: []int{1, 2}}, "Contour = 0, Holes = [1, 2]"},
	}
	for _, tt := range tests {
		if got := tt.r.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestFingerprintStableAcrossPositions(t *testing.T) {
	a := geom.Rect(0, 0, 100, 100)
	b := geom.Rect(200, 0, 5, 5)

	first := Classify([]geom.Contour{a, b}, Hierarchy{
		NewEntry(1, None, None, None), NewEntry(None, 0, None, None),
	}, 0)
	second := Classify([]geom.Contour{b, a}, Hierarchy{
		NewEntry(1, None, None, None), NewEntry(None, 0, None, None),
	}, 0)

	ra, _ := first.Region(0)
	rb, _ := second.Region(1)
	if ra.Key != rb.Key {
		t.Errorf("same boundary should fingerprint the same: %s vs %s", ra.Key, rb.Key)
	}
	if ra.Key == FingerprintOf(b) {
		t.Error("different boundaries should not collide")
	}
	if ra.Key.IsZero() {
		t.Error("fingerprint should not be zero")
	}
	if len(ra.Key.Short()) != 8 {
		t.Errorf("Short() = %q, want 8 chars", ra.Key.Short())
	}
}

func TestSetLen(t *testing.T) {
	var nilSet *Set
	if nilSet.Len() != 0 || !nilSet.IsEmpty() {
		t.Error("nil set should be empty")
	}
	s := &Set{
		Contours:  []geom.Contour{geom.Rect(0, 0, 1, 1), geom.Rect(0, 0, 2, 2)},
		Hierarchy: Hierarchy{NewEntry(None, None, None, None)},
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	if s.Contour(1) != nil {
		t.Error("Contour(1) should be nil past the aligned prefix")
	}
}
