// Package raster provides an in-memory model of raster geospatial grids
// with extent and resolution semantics, spatial subsetting, and composition
// with vector geometry layers for rendering.
//
// The core types are [Extent], a rectangle in a 2D coordinate space, and
// [Grid], a dense 2D array of cell values covering an extent. Grids are
// read-only after construction, so deriving sub-grids with [Grid.Crop] is
// safe from concurrent callers.
//
// Grids are read from tiled GeoTIFF files with [GeoTIFFSource] and
// [GridSet], composed with [VectorLayer] geometries into a [RenderPlan],
// and drawn by a [Renderer]. All inputs to a RenderPlan must share one
// coordinate reference system; use a [Reprojector] to reconcile mismatched
// systems beforehand.
package raster
