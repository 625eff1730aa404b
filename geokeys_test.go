package raster

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseGeoKeyParams(t *testing.T) {
	directory := []uint16{
		1, 1, 0, 22,
		1024, 0, 1, 1,
		1025, 0, 1, 1,
		1026, 34737, 28, 0,
		2048, 0, 1, 4258,
		2049, 34737, 86, 28,
		2050, 0, 1, 6258,
		2051, 0, 1, 8901,
		2054, 0, 1, 9102,
		2055, 34736, 1, 4,
		2056, 0, 1, 7019,
		2057, 34736, 1, 5,
		2059, 34736, 1, 6,
		2061, 34736, 1, 7,
		3072, 0, 1, 32767,
		3073, 34737, 400, 114,
		3074, 0, 1, 32767,
		3075, 0, 1, 10,
		3076, 0, 1, 9001,
		3082, 34736, 1, 2,
		3083, 34736, 1, 3,
		3088, 34736, 1, 1,
		3089, 34736, 1, 0,
	}

	params, err := parseGeoKeyParams(directory)
	assert.NoError(t, err)

	assert.Equal(t, 1, params[GeoKeyGTModelType])
	assert.Equal(t, 1, params[GeoKeyGTRasterType])
	assert.Equal(t, 4258, params[GeoKeyGeodeticCRS])
	assert.Equal(t, 32767, params[GeoKeyProjectedCRS])

	// The projected CRS is user-defined, so the geodetic CRS wins.
	assert.Equal(t, 4258, epsgFromGeoKeys(params))
}

func TestParseGeoKeyParams_Invalid(t *testing.T) {
	for _, tc := range []struct {
		name      string
		directory []uint16
	}{
		{
			name: "empty",
		},
		{
			name:      "short_header",
			directory: []uint16{1, 1, 0},
		},
		{
			name:      "bad_version",
			directory: []uint16{2, 1, 0, 0},
		},
		{
			name:      "count_mismatch",
			directory: []uint16{1, 1, 0, 2, 1024, 0, 1, 1},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseGeoKeyParams(tc.directory)
			assert.IsError(t, err, errParse)
		})
	}
}

func TestEPSGFromGeoKeys(t *testing.T) {
	for _, tc := range []struct {
		name     string
		params   map[GeoKey]int
		expected int
	}{
		{
			name:     "projected",
			params:   map[GeoKey]int{GeoKeyProjectedCRS: 3035, GeoKeyGeodeticCRS: 4258},
			expected: 3035,
		},
		{
			name:     "geodetic_only",
			params:   map[GeoKey]int{GeoKeyGeodeticCRS: 4326},
			expected: 4326,
		},
		{
			name:   "user_defined",
			params: map[GeoKey]int{GeoKeyProjectedCRS: 32767, GeoKeyGeodeticCRS: 32767},
		},
		{
			name:   "absent",
			params: map[GeoKey]int{GeoKeyGTModelType: 1},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, epsgFromGeoKeys(tc.params))
		})
	}
}
