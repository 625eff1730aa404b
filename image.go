package raster

import (
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/plot/palette"
)

// Image renders g with one pixel per cell, coloring cells by linearly
// mapping g's value range onto p's colors. NoData cells are transparent. A
// grid in which no cell is defined renders fully transparent.
func Image(g *Grid, p palette.Palette) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.cols, g.rows))
	statistics, err := g.Statistics()
	if err != nil {
		return img
	}
	colors := p.Colors()
	valueRange := statistics.Max - statistics.Min
	for row := range g.rows {
		for col := range g.cols {
			cell := g.cells[row*g.cols+col]
			if IsNoData(cell) {
				continue
			}
			index := 0
			if valueRange > 0 {
				index = min(int((cell-statistics.Min)/valueRange*float64(len(colors))), len(colors)-1)
			}
			img.Set(col, row, colors[index])
		}
	}
	return img
}

// ImageScaled renders g with scale pixels per cell. Nearest-neighbor
// resampling preserves cell boundaries.
func ImageScaled(g *Grid, p palette.Palette, scale int) image.Image {
	img := Image(g, p)
	if scale <= 1 {
		return img
	}
	return imaging.Resize(img, g.cols*scale, g.rows*scale, imaging.NearestNeighbor)
}
