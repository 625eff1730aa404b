package raster

import (
	"errors"
	"fmt"
)

var ErrInvalidExtent = errors.New("invalid extent")

// An Extent is a rectangle in a 2D coordinate space. The unit is whatever
// the coordinate reference system uses, decimal degrees by convention. An
// Extent is immutable.
type Extent struct {
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

// NewExtent returns a new Extent. It returns ErrInvalidExtent if the bounds
// are degenerate.
func NewExtent(xmin, xmax, ymin, ymax float64) (Extent, error) {
	if xmin >= xmax || ymin >= ymax {
		return Extent{}, fmt.Errorf("%w: [%v, %v] x [%v, %v]", ErrInvalidExtent, xmin, xmax, ymin, ymax)
	}
	return Extent{
		XMin: xmin,
		XMax: xmax,
		YMin: ymin,
		YMax: ymax,
	}, nil
}

// Width returns e's size in the x direction.
func (e Extent) Width() float64 {
	return e.XMax - e.XMin
}

// Height returns e's size in the y direction.
func (e Extent) Height() float64 {
	return e.YMax - e.YMin
}

// Contains reports whether (x, y) lies within e. The test is closed on all
// edges.
func (e Extent) Contains(x, y float64) bool {
	return e.XMin <= x && x <= e.XMax && e.YMin <= y && y <= e.YMax
}

// Covers reports whether e fully contains other.
func (e Extent) Covers(other Extent) bool {
	return e.XMin <= other.XMin && other.XMax <= e.XMax &&
		e.YMin <= other.YMin && other.YMax <= e.YMax
}

// Intersect returns the overlapping rectangle of e and other. It returns
// false if the two extents do not overlap. Extents that share only an edge
// do not overlap.
func (e Extent) Intersect(other Extent) (Extent, bool) {
	xMin := max(e.XMin, other.XMin)
	xMax := min(e.XMax, other.XMax)
	yMin := max(e.YMin, other.YMin)
	yMax := min(e.YMax, other.YMax)
	if xMin >= xMax || yMin >= yMax {
		return Extent{}, false
	}
	return Extent{
		XMin: xMin,
		XMax: xMax,
		YMin: yMin,
		YMax: yMax,
	}, true
}

func (e Extent) String() string {
	return fmt.Sprintf("[%g, %g] x [%g, %g]", e.XMin, e.XMax, e.YMin, e.YMax)
}
