package raster_test

import (
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-raster"
)

func TestOpenGeoTIFF(t *testing.T) {
	source, err := raster.OpenGeoTIFF(os.DirFS("testdata"), "dem.tif")
	if errors.Is(err, fs.ErrNotExist) {
		t.Skip(err)
	}
	assert.NoError(t, err)
	defer func() {
		assert.NoError(t, source.Close())
	}()

	grid, err := source.Grid(t.Context())
	assert.NoError(t, err)
	assert.Equal(t, source.Extent(), grid.Extent())

	sourceXRes, sourceYRes := source.Resolution()
	gridXRes, gridYRes := grid.Resolution()
	assert.Equal(t, sourceXRes, gridXRes)
	assert.Equal(t, sourceYRes, gridYRes)
}

func TestGeoTIFFSource_Window(t *testing.T) {
	source, err := raster.OpenGeoTIFF(os.DirFS("testdata"), "dem.tif")
	if errors.Is(err, fs.ErrNotExist) {
		t.Skip(err)
	}
	assert.NoError(t, err)
	defer func() {
		assert.NoError(t, source.Close())
	}()

	extent := source.Extent()
	target := raster.Extent{
		XMin: extent.XMin + extent.Width()/4,
		XMax: extent.XMax - extent.Width()/4,
		YMin: extent.YMin + extent.Height()/4,
		YMax: extent.YMax - extent.Height()/4,
	}

	window, err := source.Window(t.Context(), target)
	assert.NoError(t, err)
	assert.True(t, window.Extent().Covers(target))
	assert.True(t, extent.Covers(window.Extent()))

	sourceXRes, sourceYRes := source.Resolution()
	windowXRes, windowYRes := window.Resolution()
	assert.Equal(t, sourceXRes, windowXRes)
	assert.Equal(t, sourceYRes, windowYRes)

	// A windowed read equals the crop of a full read.
	grid, err := source.Grid(t.Context())
	assert.NoError(t, err)
	cropped, err := grid.Crop(target)
	assert.NoError(t, err)
	assert.Equal(t, cropped.Extent(), window.Extent())
	assert.Equal(t, gridCells(t, cropped), gridCells(t, window))
}

func TestGeoTIFFSource_Window_NoOverlap(t *testing.T) {
	source, err := raster.OpenGeoTIFF(os.DirFS("testdata"), "dem.tif")
	if errors.Is(err, fs.ErrNotExist) {
		t.Skip(err)
	}
	assert.NoError(t, err)
	defer func() {
		assert.NoError(t, source.Close())
	}()

	extent := source.Extent()
	target := raster.Extent{
		XMin: extent.XMax + 1,
		XMax: extent.XMax + 2,
		YMin: extent.YMin,
		YMax: extent.YMax,
	}
	_, err = source.Window(t.Context(), target)
	assert.IsError(t, err, raster.ErrNoOverlap)
}
