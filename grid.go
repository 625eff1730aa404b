package raster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrCoordinateOutOfRange = errors.New("coordinate out of range")
	ErrEmptyGrid            = errors.New("empty grid")
	ErrIndexOutOfBounds     = errors.New("index out of bounds")
)

// NoData is the sentinel cell value for a missing measurement.
var NoData = math.NaN()

// IsNoData reports whether value is the NoData sentinel.
func IsNoData(value float64) bool {
	return math.IsNaN(value)
}

// A Grid is a dense raster of cells covering an extent. Cells are stored in
// row-major order with row 0 the northernmost row, so cell (r, c) covers
//
//	[xMin + c*xRes, xMin + (c+1)*xRes] x [yMax - (r+1)*yRes, yMax - r*yRes].
//
// A Grid is read-only after construction.
type Grid struct {
	rows   int
	cols   int
	extent Extent
	xRes   float64
	yRes   float64
	cells  []float64
}

// NewGrid returns a new Grid with the given cells, dimensions, and extent.
// cells must hold exactly rows*cols values; the resolution is derived from
// the extent and the dimensions. The Grid takes ownership of cells.
func NewGrid(cells []float64, rows, cols int, extent Extent) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("non-positive dimensions: %dx%d", rows, cols)
	}
	if _, err := NewExtent(extent.XMin, extent.XMax, extent.YMin, extent.YMax); err != nil {
		return nil, err
	}
	if len(cells) != rows*cols {
		return nil, fmt.Errorf("got %d cells, expected %d", len(cells), rows*cols)
	}
	return &Grid{
		rows:   rows,
		cols:   cols,
		extent: extent,
		xRes:   extent.Width() / float64(cols),
		yRes:   extent.Height() / float64(rows),
		cells:  cells,
	}, nil
}

// Rows returns the number of rows in g.
func (g *Grid) Rows() int {
	return g.rows
}

// Cols returns the number of columns in g.
func (g *Grid) Cols() int {
	return g.cols
}

// Extent returns g's extent.
func (g *Grid) Extent() Extent {
	return g.extent
}

// Resolution returns the coordinate-space width and height of one cell.
func (g *Grid) Resolution() (float64, float64) {
	return g.xRes, g.yRes
}

// CellIndex returns the row and column of the cell covering (x, y). Cells
// are half-open on their upper and right edges so that each coordinate maps
// to exactly one cell; coordinates on the extent's own maximum edges map to
// the last row or column, keeping CellIndex consistent with
// [Extent.Contains]. It returns ErrCoordinateOutOfRange if (x, y) lies
// outside g's extent.
func (g *Grid) CellIndex(x, y float64) (int, int, error) {
	if !g.extent.Contains(x, y) {
		return 0, 0, fmt.Errorf("%w: (%v, %v) outside %v", ErrCoordinateOutOfRange, x, y, g.extent)
	}
	col := min(int(math.Floor((x-g.extent.XMin)/g.xRes)), g.cols-1)
	row := min(int(math.Floor((g.extent.YMax-y)/g.yRes)), g.rows-1)
	return row, col, nil
}

// CellCenter returns the coordinate of the center of cell (row, col).
func (g *Grid) CellCenter(row, col int) (float64, float64, error) {
	if err := g.checkIndex(row, col); err != nil {
		return 0, 0, err
	}
	x := g.extent.XMin + (float64(col)+0.5)*g.xRes
	y := g.extent.YMax - (float64(row)+0.5)*g.yRes
	return x, y, nil
}

// ValueAt returns the value of cell (row, col), which is NoData when the
// cell holds no measurement. It returns ErrIndexOutOfBounds if the index
// lies outside g.
func (g *Grid) ValueAt(row, col int) (float64, error) {
	if err := g.checkIndex(row, col); err != nil {
		return 0, err
	}
	return g.cells[row*g.cols+col], nil
}

func (g *Grid) checkIndex(row, col int) error {
	if row < 0 || g.rows <= row || col < 0 || g.cols <= col {
		return fmt.Errorf("%w: (%d, %d) outside %dx%d", ErrIndexOutOfBounds, row, col, g.rows, g.cols)
	}
	return nil
}

// Statistics summarize the defined cells of a Grid.
type Statistics struct {
	Min  float64
	Max  float64
	Mean float64
}

// Statistics returns summary statistics over g's defined cells. NoData
// cells are excluded. It returns ErrEmptyGrid if every cell is NoData.
func (g *Grid) Statistics() (Statistics, error) {
	defined := make([]float64, 0, len(g.cells))
	for _, cell := range g.cells {
		if !IsNoData(cell) {
			defined = append(defined, cell)
		}
	}
	if len(defined) == 0 {
		return Statistics{}, ErrEmptyGrid
	}
	return Statistics{
		Min:  floats.Min(defined),
		Max:  floats.Max(defined),
		Mean: stat.Mean(defined, nil),
	}, nil
}

// A Description is a structured summary of a Grid.
type Description struct {
	Rows        int
	Cols        int
	XRes        float64
	YRes        float64
	Extent      Extent
	Min         float64 // NaN when no cell is defined.
	Max         float64 // NaN when no cell is defined.
	NoDataCells int
}

// Describe returns a structured summary of g.
func (g *Grid) Describe() Description {
	noDataCells := 0
	for _, cell := range g.cells {
		if IsNoData(cell) {
			noDataCells++
		}
	}
	description := Description{
		Rows:        g.rows,
		Cols:        g.cols,
		XRes:        g.xRes,
		YRes:        g.yRes,
		Extent:      g.extent,
		Min:         math.NaN(),
		Max:         math.NaN(),
		NoDataCells: noDataCells,
	}
	if statistics, err := g.Statistics(); err == nil {
		description.Min = statistics.Min
		description.Max = statistics.Max
	}
	return description
}

func (d Description) String() string {
	return fmt.Sprintf("%dx%d cells, resolution (%g, %g), extent %v, values [%g, %g], %d cells without data",
		d.Rows, d.Cols, d.XRes, d.YRes, d.Extent, d.Min, d.Max, d.NoDataCells)
}
