package vision

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chazu/relief/pkg/contour"
	"github.com/chazu/relief/pkg/geom"
)

// document is the on-disk shape of a contour file, matching the arrays a
// findContours call produces:
//
//	{"contours": [[[x, y], ...], ...], "hierarchy": [[next, prev, child, parent], ...]}
type document struct {
	Contours  [][][2]int `json:"contours"`
	Hierarchy [][4]int   `json:"hierarchy"`
}

// LoadJSON decodes a contour file. Contour and hierarchy lengths are not
// required to match; classification only uses the index-aligned prefix.
func LoadJSON(r io.Reader) (*contour.Set, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("vision: decode contours: %w", err)
	}

	set := &contour.Set{
		Contours:  make([]geom.Contour, len(doc.Contours)),
		Hierarchy: make(contour.Hierarchy, len(doc.Hierarchy)),
	}
	for i, pts := range doc.Contours {
		c := make(geom.Contour, len(pts))
		for j, p := range pts {
			c[j] = geom.Pt(p[0], p[1])
		}
		set.Contours[i] = c
	}
	for i, e := range doc.Hierarchy {
		set.Hierarchy[i] = contour.NewEntry(e[0], e[1], e[2], e[3])
	}
	return set, nil
}

// LoadFile reads a contour file from disk.
func LoadFile(path string) (*contour.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vision: open %s: %w", path, err)
	}
	defer f.Close()
	set, err := LoadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// WriteJSON encodes s in the contour file format.
func WriteJSON(w io.Writer, s *contour.Set) error {
	doc := document{
		Contours:  [][][2]int{},
		Hierarchy: [][4]int{},
	}
	if s != nil {
		for _, c := range s.Contours {
			pts := make([][2]int, len(c))
			for j, p := range c {
				pts[j] = [2]int{p.X, p.Y}
			}
			doc.Contours = append(doc.Contours, pts)
		}
		for _, e := range s.Hierarchy {
			doc.Hierarchy = append(doc.Hierarchy, [4]int{e.Next, e.Prev, e.FirstChild, e.Parent})
		}
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("vision: encode contours: %w", err)
	}
	return nil
}
