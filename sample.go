package raster

import "math"

// Bilinear returns the values of g interpolated at coords, each an (x, y)
// pair. Interpolation is bilinear between the centers of the four cells
// surrounding each coordinate. Coordinates outside g's extent yield NaN, as
// do interpolations touching a NoData cell: NaN propagates through the
// arithmetic.
func Bilinear(g *Grid, coords [][]float64) []float64 {
	result := make([]float64, len(coords))
	for i, coord := range coords {
		result[i] = bilinear(g, coord[0], coord[1])
	}
	return result
}

func bilinear(g *Grid, x, y float64) float64 {
	if !g.extent.Contains(x, y) {
		return math.NaN()
	}

	// Fractional position in cell-center space.
	fCol := (x-g.extent.XMin)/g.xRes - 0.5
	fRow := (g.extent.YMax-y)/g.yRes - 0.5
	col0 := max(int(math.Floor(fCol)), 0)
	row0 := max(int(math.Floor(fRow)), 0)
	col0 = min(col0, g.cols-1)
	row0 = min(row0, g.rows-1)
	col1 := min(col0+1, g.cols-1)
	row1 := min(row0+1, g.rows-1)
	dx := min(max(fCol-float64(col0), 0), 1)
	dy := min(max(fRow-float64(row0), 0), 1)

	return g.cells[row0*g.cols+col0]*(1-dx)*(1-dy) +
		g.cells[row0*g.cols+col1]*dx*(1-dy) +
		g.cells[row1*g.cols+col0]*(1-dx)*dy +
		g.cells[row1*g.cols+col1]*dx*dy
}
