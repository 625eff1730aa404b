package raster

import (
	"github.com/twpayne/go-proj/v11"
)

// A Reprojector transforms coordinates from a source to a target coordinate
// reference system. Grids and vector layers must share one coordinate
// reference system before they are composed into a RenderPlan; a
// Reprojector reconciles them beforehand.
//
// A Reprojector must not be used concurrently.
type Reprojector struct {
	pj *proj.PJ
}

// NewReprojector returns a Reprojector from sourceCRS to targetCRS, each
// given as an authority string like "epsg:4326". Coordinates are in the
// axis order defined by the authority, latitude before longitude for
// epsg:4326.
func NewReprojector(sourceCRS, targetCRS string) (*Reprojector, error) {
	pj, err := proj.NewCRSToCRS(sourceCRS, targetCRS, nil)
	if err != nil {
		return nil, err
	}
	return &Reprojector{
		pj: pj,
	}, nil
}

// Forward transforms coords in place from the source to the target CRS.
// Each coordinate is an (x, y) pair.
func (r *Reprojector) Forward(coords [][]float64) error {
	return r.pj.ForwardFloat64Slices(coords)
}

// Inverse transforms coords in place from the target back to the source
// CRS.
func (r *Reprojector) Inverse(coords [][]float64) error {
	return r.pj.InverseFloat64Slices(coords)
}

// ForwardExtent transforms extent by transforming its corners and taking
// their bounding box. This is exact for axis-aligned transformations and an
// approximation of the true footprint for curved ones.
func (r *Reprojector) ForwardExtent(extent Extent) (Extent, error) {
	coords := [][]float64{
		{extent.XMin, extent.YMin},
		{extent.XMin, extent.YMax},
		{extent.XMax, extent.YMin},
		{extent.XMax, extent.YMax},
	}
	if err := r.Forward(coords); err != nil {
		return Extent{}, err
	}
	xMin, xMax := coords[0][0], coords[0][0]
	yMin, yMax := coords[0][1], coords[0][1]
	for _, coord := range coords[1:] {
		xMin = min(xMin, coord[0])
		xMax = max(xMax, coord[0])
		yMin = min(yMin, coord[1])
		yMax = max(yMax, coord[1])
	}
	return NewExtent(xMin, xMax, yMin, yMax)
}

// ForwardLayer returns a copy of layer with all feature coordinates
// transformed from the source to the target CRS. layer is not modified.
func (r *Reprojector) ForwardLayer(layer *VectorLayer) (*VectorLayer, error) {
	features := make([]Feature, len(layer.Features()))
	for i, feature := range layer.Features() {
		coords := cloneCoords(feature.Geometry.Coords)
		if err := r.Forward(coords); err != nil {
			return nil, err
		}
		feature.Geometry.Coords = coords
		features[i] = feature
	}
	return NewVectorLayer(layer.Name(), features)
}

// cloneCoords deep-copies coords with a single backing array.
func cloneCoords(coords [][]float64) [][]float64 {
	clonedCoordsFlat := make([]float64, 2*len(coords))
	clonedCoords := make([][]float64, len(coords))
	for i, coord := range coords {
		copy(clonedCoordsFlat[2*i:2*i+2], coord)
		clonedCoords[i] = clonedCoordsFlat[2*i : 2*i+2]
	}
	return clonedCoords
}
