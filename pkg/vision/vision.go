// Package vision adapts external contour detectors to the contour.Set
// consumed by classification. A detector binarizes an image at a threshold
// and returns the two-level (outer/hole) contour hierarchy.
package vision

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chazu/relief/pkg/contour"
)

// Detector extracts a two-level contour hierarchy from an image file.
type Detector interface {
	Detect(path string, threshold int) (*contour.Set, error)
}

// DetectorFunc adapts a plain function to Detector.
type DetectorFunc func(path string, threshold int) (*contour.Set, error)

// Detect calls f(path, threshold).
func (f DetectorFunc) Detect(path string, threshold int) (*contour.Set, error) {
	return f(path, threshold)
}

// Files is a Detector for pre-computed contour files. The threshold is
// ignored.
var Files = DetectorFunc(func(path string, _ int) (*contour.Set, error) {
	return LoadFile(path)
})

// Auto routes ".json" paths to Files and everything else to Image.
type Auto struct {
	Image Detector
}

// Detect implements Detector.
func (a Auto) Detect(path string, threshold int) (*contour.Set, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return Files.Detect(path, threshold)
	}
	if a.Image == nil {
		return nil, fmt.Errorf("vision: no image detector configured for %s", path)
	}
	return a.Image.Detect(path, threshold)
}
