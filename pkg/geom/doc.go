// Package geom provides the planar primitives shared by the classifier and
// the extrusion engine: integer contour points, polygon areas, bounding
// boxes and the non-strict point-in-polygon test.
package geom
