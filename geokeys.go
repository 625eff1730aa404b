package raster

import "errors"

var errParse = errors.New("parse error")

type GeoKey uint16

const (
	GeoKeyGTModelType  GeoKey = 1024
	GeoKeyGTRasterType GeoKey = 1025
	GeoKeyGeodeticCRS  GeoKey = 2048
	GeoKeyProjectedCRS GeoKey = 3072

	geoKeyUserDefined = 32767
)

// parseGeoKeyParams parses the SHORT-valued entries of a GeoTIFF GeoKey
// directory. Entries stored in the double or ASCII parameter tags carry no
// CRS codes, so they are skipped.
func parseGeoKeyParams(directory []uint16) (map[GeoKey]int, error) {
	if len(directory) < 4 {
		return nil, errParse
	}
	if keyDirectoryVersion := int(directory[0]); keyDirectoryVersion != 1 {
		return nil, errParse
	}
	if keyRevision := int(directory[1]); keyRevision != 1 {
		return nil, errParse
	}
	if minorRevision := int(directory[2]); minorRevision != 0 && minorRevision != 1 {
		return nil, errParse
	}
	numberOfKeys := int(directory[3])
	if len(directory) != 4+4*numberOfKeys {
		return nil, errParse
	}

	params := make(map[GeoKey]int)
	for i := range numberOfKeys {
		keyValues := directory[4+4*i : 4+4*(i+1)]
		if tiffTagLocation := int(keyValues[1]); tiffTagLocation != 0 {
			continue
		}
		if numberOfValues := int(keyValues[2]); numberOfValues != 1 {
			return nil, errParse
		}
		params[GeoKey(keyValues[0])] = int(keyValues[3])
	}
	return params, nil
}

// epsgFromGeoKeys returns the EPSG code recorded in params, preferring a
// projected CRS over a geodetic one. It returns 0 when no code is recorded
// or the CRS is user-defined.
func epsgFromGeoKeys(params map[GeoKey]int) int {
	if code, ok := params[GeoKeyProjectedCRS]; ok && code != geoKeyUserDefined {
		return code
	}
	if code, ok := params[GeoKeyGeodeticCRS]; ok && code != geoKeyUserDefined {
		return code
	}
	return 0
}
