package raster

import (
	"errors"
	"fmt"
	"math"
)

var ErrNoOverlap = errors.New("no overlap")

// Crop returns the sub-grid of g covering target. The overlap of target and
// g's extent is snapped outward to g's cell boundaries, so the result is a
// contiguous sub-block of g's cells: no resampling occurs, and the result's
// resolution is identical to g's. If target fully contains g's extent the
// result equals g. g is never modified.
//
// It returns ErrNoOverlap if target is disjoint from g's extent.
func (g *Grid) Crop(target Extent) (*Grid, error) {
	effective, ok := g.extent.Intersect(target)
	if !ok {
		return nil, fmt.Errorf("%w: %v and %v", ErrNoOverlap, g.extent, target)
	}

	// Snap outward to the enclosing cell boundaries.
	colMin := max(int(math.Floor((effective.XMin-g.extent.XMin)/g.xRes)), 0)
	colMax := min(int(math.Ceil((effective.XMax-g.extent.XMin)/g.xRes)), g.cols)
	rowMin := max(int(math.Floor((g.extent.YMax-effective.YMax)/g.yRes)), 0)
	rowMax := min(int(math.Ceil((g.extent.YMax-effective.YMin)/g.yRes)), g.rows)

	rows := rowMax - rowMin
	cols := colMax - colMin
	cells := make([]float64, 0, rows*cols)
	for row := rowMin; row < rowMax; row++ {
		cells = append(cells, g.cells[row*g.cols+colMin:row*g.cols+colMax]...)
	}

	extent := Extent{
		XMin: g.extent.XMin + float64(colMin)*g.xRes,
		XMax: g.extent.XMin + float64(colMax)*g.xRes,
		YMin: g.extent.YMax - float64(rowMax)*g.yRes,
		YMax: g.extent.YMax - float64(rowMin)*g.yRes,
	}
	// Pin boundary rows and columns to the source extent so that an
	// identity crop reproduces it exactly.
	if colMax == g.cols {
		extent.XMax = g.extent.XMax
	}
	if rowMax == g.rows {
		extent.YMin = g.extent.YMin
	}

	// Constructed directly, not via NewGrid, so that the resolution carries
	// over bit for bit instead of being rederived from the snapped extent.
	return &Grid{
		rows:   rows,
		cols:   cols,
		extent: extent,
		xRes:   g.xRes,
		yRes:   g.yRes,
		cells:  cells,
	}, nil
}
