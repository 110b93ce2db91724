// Package contour turns the flat contour list and hierarchy array produced
// by a two-level contour extraction into regions: top-level contours
// together with their direct holes, filtered by effective area.
//
// Region identifiers are positional (the index of the outer contour in the
// detection output). They are valid within one classification pass only;
// Fingerprint offers a content-derived key for callers that need to match
// regions across passes.
package contour
