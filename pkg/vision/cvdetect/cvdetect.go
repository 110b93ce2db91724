// Package cvdetect implements vision.Detector on top of OpenCV through
// gocv. The image is converted to grayscale, binarized with an inverted
// threshold so dark strokes become foreground, and traced with two-level
// (CCOMP) retrieval and simple chain approximation.
package cvdetect

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/chazu/relief/pkg/contour"
	"github.com/chazu/relief/pkg/geom"
	"github.com/chazu/relief/pkg/vision"
)

// Detector is the OpenCV contour detector. The zero value is ready to use.
type Detector struct{}

var _ vision.Detector = Detector{}

// Detect reads the image at path and returns its contour hierarchy at the
// given binarization threshold (0..255).
func (Detector) Detect(path string, threshold int) (*contour.Set, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("cvdetect: cannot read image %s", path)
	}
	return DetectMat(img, threshold)
}

// DetectMat runs detection on a BGR image already in memory.
func DetectMat(bgr gocv.Mat, threshold int) (*contour.Set, error) {
	if bgr.Empty() {
		return nil, fmt.Errorf("cvdetect: empty image")
	}
	threshold = min(max(threshold, 0), 255)

	gray := gocv.NewMat()
	defer gray.Close()
	if bgr.Channels() == 1 {
		bgr.CopyTo(&gray)
	} else {
		gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)
	}

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, float32(threshold), 255, gocv.ThresholdBinaryInv)

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()
	contours := gocv.FindContoursWithParams(binary, &hierarchy, gocv.RetrievalCComp, gocv.ChainApproxSimple)
	defer contours.Close()

	return toSet(contours, hierarchy), nil
}

// toSet copies the gocv contour vector and its 1xN CV_32SC4 hierarchy
// matrix into plain Go values.
func toSet(contours gocv.PointsVector, hierarchy gocv.Mat) *contour.Set {
	n := contours.Size()
	set := &contour.Set{
		Contours:  make([]geom.Contour, 0, n),
		Hierarchy: make(contour.Hierarchy, 0, n),
	}
	for i := 0; i < n; i++ {
		pts := contours.At(i).ToPoints()
		c := make(geom.Contour, len(pts))
		for j, p := range pts {
			c[j] = geom.Pt(p.X, p.Y)
		}
		set.Contours = append(set.Contours, c)
	}
	if hierarchy.Empty() {
		return set
	}
	for i := 0; i < n && i < hierarchy.Cols(); i++ {
		v := hierarchy.GetVeciAt(0, i)
		if len(v) < 4 {
			break
		}
		set.Hierarchy = append(set.Hierarchy, contour.NewEntry(int(v[0]), int(v[1]), int(v[2]), int(v[3])))
	}
	return set
}
