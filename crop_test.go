package raster_test

import (
	"math/rand/v2"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-raster"
)

func gridCells(t testing.TB, grid *raster.Grid) []float64 {
	t.Helper()
	cells := make([]float64, 0, grid.Rows()*grid.Cols())
	for row := range grid.Rows() {
		for col := range grid.Cols() {
			value, err := grid.ValueAt(row, col)
			assert.NoError(t, err)
			cells = append(cells, value)
		}
	}
	return cells
}

func TestGrid_Crop_Identity(t *testing.T) {
	grid := newGlobalGrid(t)
	cropped, err := grid.Crop(grid.Extent())
	assert.NoError(t, err)
	assert.Equal(t, grid.Rows(), cropped.Rows())
	assert.Equal(t, grid.Cols(), cropped.Cols())
	assert.Equal(t, grid.Extent(), cropped.Extent())
	assert.Equal(t, gridCells(t, grid), gridCells(t, cropped))
}

func TestGrid_Crop_ContainingTarget(t *testing.T) {
	grid := newGlobalGrid(t)
	target := raster.Extent{XMin: -200, XMax: 200, YMin: -100, YMax: 100}
	cropped, err := grid.Crop(target)
	assert.NoError(t, err)
	assert.Equal(t, grid.Extent(), cropped.Extent())
	assert.Equal(t, gridCells(t, grid), gridCells(t, cropped))
}

func TestGrid_Crop_NoOverlap(t *testing.T) {
	grid := newGlobalGrid(t)
	for _, tc := range []struct {
		name   string
		target raster.Extent
	}{
		{
			name:   "east_of_grid",
			target: raster.Extent{XMin: 200, XMax: 220, YMin: 0, YMax: 10},
		},
		{
			name:   "north_of_grid",
			target: raster.Extent{XMin: 0, XMax: 10, YMin: 95, YMax: 100},
		},
		{
			name:   "touching_edge",
			target: raster.Extent{XMin: 180, XMax: 200, YMin: 0, YMax: 10},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := grid.Crop(tc.target)
			assert.IsError(t, err, raster.ErrNoOverlap)
		})
	}
}

func TestGrid_Crop_SnapsOutward(t *testing.T) {
	grid := newGlobalGrid(t)
	target := raster.Extent{XMin: -141, XMax: -51, YMin: 17, YMax: 59}
	cropped, err := grid.Crop(target)
	assert.NoError(t, err)

	// The snapped extent covers every cell touching the target.
	assert.Equal(t, raster.Extent{XMin: -180, XMax: 0, YMin: 0, YMax: 90}, cropped.Extent())
	assert.Equal(t, 2, cropped.Rows())
	assert.Equal(t, 2, cropped.Cols())
	assert.True(t, cropped.Extent().Covers(target))

	// Cropping never resamples.
	xRes, yRes := cropped.Resolution()
	assert.Equal(t, 90.0, xRes)
	assert.Equal(t, 45.0, yRes)

	assert.Equal(t, []float64{0, 1, 4, 5}, gridCells(t, cropped))
}

func TestGrid_Crop_ResolutionInvariance(t *testing.T) {
	extent, err := raster.NewExtent(-180, 180, -90, 90)
	assert.NoError(t, err)
	grid, err := raster.NewGrid(make([]float64, 7*13), 7, 13, extent)
	assert.NoError(t, err)
	sourceXRes, sourceYRes := grid.Resolution()

	r := rand.New(rand.NewPCG(0, 0))
	for range 256 {
		x0 := -180 + 360*r.Float64()
		x1 := -180 + 360*r.Float64()
		y0 := -90 + 180*r.Float64()
		y1 := -90 + 180*r.Float64()
		target, err := raster.NewExtent(min(x0, x1), max(x0, x1)+1e-6, min(y0, y1), max(y0, y1)+1e-6)
		assert.NoError(t, err)

		cropped, err := grid.Crop(target)
		assert.NoError(t, err)
		xRes, yRes := cropped.Resolution()
		assert.Equal(t, sourceXRes, xRes)
		assert.Equal(t, sourceYRes, yRes)
		assert.True(t, grid.Extent().Covers(cropped.Extent()))
	}
}

func TestGrid_Crop_DoesNotMutateSource(t *testing.T) {
	grid := newGlobalGrid(t)
	before := gridCells(t, grid)
	_, err := grid.Crop(raster.Extent{XMin: -10, XMax: 10, YMin: -10, YMax: 10})
	assert.NoError(t, err)
	assert.Equal(t, before, gridCells(t, grid))
}

func BenchmarkGrid_Crop(b *testing.B) {
	extent, err := raster.NewExtent(0, 512, 0, 512)
	assert.NoError(b, err)
	cells := make([]float64, 512*512)
	for i := range cells {
		cells[i] = float64(i)
	}
	grid, err := raster.NewGrid(cells, 512, 512, extent)
	assert.NoError(b, err)

	r := rand.New(rand.NewPCG(0, 0))
	b.ResetTimer()
	for range b.N {
		x := 512 * r.Float64() / 2
		y := 512 * r.Float64() / 2
		target, err := raster.NewExtent(x, x+128, y, y+128)
		assert.NoError(b, err)
		_, err = grid.Crop(target)
		assert.NoError(b, err)
	}
}
