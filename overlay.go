package raster

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dhconnelly/rtreego"
)

// A GeometryType identifies the shape of a Geometry.
type GeometryType int

const (
	GeometryTypePoint GeometryType = iota + 1
	GeometryTypeLine
	GeometryTypePolygon
)

func (t GeometryType) String() string {
	switch t {
	case GeometryTypePoint:
		return "point"
	case GeometryTypeLine:
		return "line"
	case GeometryTypePolygon:
		return "polygon"
	default:
		return fmt.Sprintf("GeometryType(%d)", int(t))
	}
}

// A Geometry is a point, line, or polygon in the same coordinate space as
// the grids it is composed with. Polygon rings are implicitly closed.
type Geometry struct {
	Type   GeometryType
	Coords [][]float64 // (x, y) pairs.
}

// A Feature is a named geometry with attributes.
type Feature struct {
	Name       string
	Geometry   Geometry
	Attributes map[string]string
}

// A VectorLayer is a named set of features with a spatial index for
// viewport queries. A VectorLayer is read-only after construction.
type VectorLayer struct {
	name     string
	features []Feature
	rtree    *rtreego.Rtree
}

// indexedFeature wraps a feature for R-tree storage.
type indexedFeature struct {
	feature Feature
	extent  Extent
}

// Bounds implements rtreego.Spatial.
func (f *indexedFeature) Bounds() rtreego.Rect {
	return rtreeRect(f.extent)
}

// rtreeRect converts extent to an R-tree rectangle. R-tree rectangles must
// have non-zero lengths, so the degenerate extents of point features are
// padded by a small epsilon.
func rtreeRect(extent Extent) rtreego.Rect {
	const epsilon = 1e-9
	xLength := max(extent.Width(), epsilon)
	yLength := max(extent.Height(), epsilon)
	rect, _ := rtreego.NewRect(rtreego.Point{extent.XMin, extent.YMin}, []float64{xLength, yLength})
	return rect
}

// NewVectorLayer returns a new VectorLayer containing features.
func NewVectorLayer(name string, features []Feature) (*VectorLayer, error) {
	rtree := rtreego.NewTree(2, 25, 50)
	for _, feature := range features {
		if err := validateGeometry(feature.Geometry); err != nil {
			return nil, fmt.Errorf("feature %q: %w", feature.Name, err)
		}
		rtree.Insert(&indexedFeature{
			feature: feature,
			extent:  featureExtent(feature),
		})
	}
	return &VectorLayer{
		name:     name,
		features: slices.Clone(features),
		rtree:    rtree,
	}, nil
}

func validateGeometry(geometry Geometry) error {
	for _, coord := range geometry.Coords {
		if len(coord) < 2 {
			return fmt.Errorf("coordinate with %d values", len(coord))
		}
	}
	switch geometry.Type {
	case GeometryTypePoint:
		if len(geometry.Coords) != 1 {
			return fmt.Errorf("point with %d coordinates", len(geometry.Coords))
		}
	case GeometryTypeLine:
		if len(geometry.Coords) < 2 {
			return fmt.Errorf("line with %d coordinates", len(geometry.Coords))
		}
	case GeometryTypePolygon:
		if len(geometry.Coords) < 3 {
			return fmt.Errorf("polygon with %d coordinates", len(geometry.Coords))
		}
	default:
		return fmt.Errorf("unknown geometry type: %d", int(geometry.Type))
	}
	return nil
}

// featureExtent returns the bounding rectangle of feature's geometry. The
// bounds of a single point are degenerate, so the Extent invariants do not
// apply here.
func featureExtent(feature Feature) Extent {
	extent := Extent{
		XMin: feature.Geometry.Coords[0][0],
		XMax: feature.Geometry.Coords[0][0],
		YMin: feature.Geometry.Coords[0][1],
		YMax: feature.Geometry.Coords[0][1],
	}
	for _, coord := range feature.Geometry.Coords[1:] {
		extent.XMin = min(extent.XMin, coord[0])
		extent.XMax = max(extent.XMax, coord[0])
		extent.YMin = min(extent.YMin, coord[1])
		extent.YMax = max(extent.YMax, coord[1])
	}
	return extent
}

// Name returns l's name.
func (l *VectorLayer) Name() string {
	return l.name
}

// Features returns all features in l.
func (l *VectorLayer) Features() []Feature {
	return l.features
}

// FeaturesInExtent returns the features whose bounding rectangles intersect
// extent.
func (l *VectorLayer) FeaturesInExtent(extent Extent) []Feature {
	spatials := l.rtree.SearchIntersect(rtreeRect(extent))
	features := make([]Feature, 0, len(spatials))
	for _, spatial := range spatials {
		features = append(features, spatial.(*indexedFeature).feature)
	}
	return features
}

// A RenderPlan is an explicit ordered composition of one raster grid and
// zero or more vector layers, all in one shared coordinate reference
// system. The raster is drawn first and the layers in order after it, so
// later layers occlude earlier ones. A RenderPlan references its grid and
// layers, it does not own them.
type RenderPlan struct {
	grid   *Grid
	layers []*VectorLayer
}

// NewRenderPlan returns a new RenderPlan composing grid and layers.
func NewRenderPlan(grid *Grid, layers ...*VectorLayer) (*RenderPlan, error) {
	if grid == nil {
		return nil, errors.New("nil grid")
	}
	return &RenderPlan{
		grid:   grid,
		layers: slices.Clone(layers),
	}, nil
}

// Grid returns the raster grid drawn first.
func (p *RenderPlan) Grid() *Grid {
	return p.grid
}

// Layers returns the vector layers in paint order.
func (p *RenderPlan) Layers() []*VectorLayer {
	return p.layers
}
