package raster_test

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-raster"
)

func assertInDelta(t *testing.T, expected, actual, delta float64) {
	t.Helper()
	assert.True(t, math.Abs(expected-actual) <= delta)
}

func TestReprojector_RoundTrip(t *testing.T) {
	reprojector, err := raster.NewReprojector("epsg:4326", "epsg:3857")
	assert.NoError(t, err)

	// epsg:4326 coordinates are latitude, longitude.
	coords := [][]float64{
		{45.505288300000004, 6.6771972},
		{39.466667, -31.216667},
	}
	expected := [][]float64{
		{45.505288300000004, 6.6771972},
		{39.466667, -31.216667},
	}

	assert.NoError(t, reprojector.Forward(coords))
	assert.NoError(t, reprojector.Inverse(coords))
	for i := range coords {
		assertInDelta(t, expected[i][0], coords[i][0], 1e-9)
		assertInDelta(t, expected[i][1], coords[i][1], 1e-9)
	}
}

func TestReprojector_ForwardExtent(t *testing.T) {
	reprojector, err := raster.NewReprojector("epsg:4326", "epsg:3857")
	assert.NoError(t, err)

	// Latitudes 40-50, longitudes 5-15.
	extent, err := raster.NewExtent(40, 50, 5, 15)
	assert.NoError(t, err)

	actual, err := reprojector.ForwardExtent(extent)
	assert.NoError(t, err)
	assertInDelta(t, 556597.45, actual.XMin, 1e-2)
	assertInDelta(t, 1669792.36, actual.XMax, 1e-2)
	assertInDelta(t, 4865942.28, actual.YMin, 1e-2)
	assertInDelta(t, 6446275.84, actual.YMax, 1e-2)
}

func TestReprojector_ForwardLayer(t *testing.T) {
	reprojector, err := raster.NewReprojector("epsg:4326", "epsg:3857")
	assert.NoError(t, err)

	layer, err := raster.NewVectorLayer("peaks", []raster.Feature{
		{
			Name: "alps",
			Geometry: raster.Geometry{
				Type:   raster.GeometryTypePoint,
				Coords: [][]float64{{45, 6}},
			},
		},
	})
	assert.NoError(t, err)

	transformed, err := reprojector.ForwardLayer(layer)
	assert.NoError(t, err)
	assert.Equal(t, "peaks", transformed.Name())
	assert.Equal(t, 1, len(transformed.Features()))
	coord := transformed.Features()[0].Geometry.Coords[0]
	assertInDelta(t, 667916.94, coord[0], 1e-2)
	assertInDelta(t, 5621521.49, coord[1], 1e-2)

	// The source layer is not modified.
	assert.Equal(t, [][]float64{{45, 6}}, layer.Features()[0].Geometry.Coords)
}
