package raster

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// A ColorRamp is a sequence of colors interpolated between stops in Lab
// color space. It implements gonum.org/v1/plot/palette.Palette.
type ColorRamp struct {
	colors []color.Color
}

// NewColorRamp returns a ColorRamp of n colors blended through stops, in
// order. Fewer than two stops fall back to a black-to-white ramp.
func NewColorRamp(n int, stops ...color.Color) ColorRamp {
	n = max(n, 2)
	if len(stops) < 2 {
		stops = []color.Color{color.Black, color.White}
	}
	colors := make([]color.Color, n)
	for i := range n {
		t := float64(i) / float64(n-1) * float64(len(stops)-1)
		j := min(int(t), len(stops)-2)
		c0, _ := colorful.MakeColor(stops[j])
		c1, _ := colorful.MakeColor(stops[j+1])
		colors[i] = c0.BlendLab(c1, t-float64(j)).Clamped()
	}
	return ColorRamp{colors: colors}
}

// Colors implements palette.Palette.
func (r ColorRamp) Colors() []color.Color {
	return r.colors
}

// TerrainRamp returns a green-khaki-brown-white ramp of n colors, the
// default palette for rendering grids.
func TerrainRamp(n int) ColorRamp {
	return NewColorRamp(n,
		color.RGBA{R: 0x00, G: 0x64, B: 0x00, A: 0xff},
		color.RGBA{R: 0xf0, G: 0xe6, B: 0x8c, A: 0xff},
		color.RGBA{R: 0x8b, G: 0x45, B: 0x13, A: 0xff},
		color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	)
}

// layerColors returns n distinct hues for drawing vector layers.
func layerColors(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range n {
		colors[i] = colorful.Hsl(360*float64(i)/float64(n), 0.7, 0.4)
	}
	return colors
}

// gridXYZ adapts a Grid to gonum/plot's plotter.GridXYZ, reporting X and Y
// at cell centers. plot rows run south to north, Grid rows north to south.
type gridXYZ struct {
	grid *Grid
}

func (g gridXYZ) Dims() (int, int) {
	return g.grid.cols, g.grid.rows
}

func (g gridXYZ) Z(c, r int) float64 {
	return g.grid.cells[(g.grid.rows-1-r)*g.grid.cols+c]
}

func (g gridXYZ) X(c int) float64 {
	return g.grid.extent.XMin + (float64(c)+0.5)*g.grid.xRes
}

func (g gridXYZ) Y(r int) float64 {
	return g.grid.extent.YMin + (float64(r)+0.5)*g.grid.yRes
}

// A Renderer draws RenderPlans as gonum/plot figures.
type Renderer struct {
	palette     palette.Palette
	layerColors []color.Color
	lineWidth   vg.Length
}

// A RendererOption sets an option on a Renderer.
type RendererOption func(*Renderer)

// WithPalette sets the palette used for the raster layer.
func WithPalette(p palette.Palette) RendererOption {
	return func(r *Renderer) {
		r.palette = p
	}
}

// WithLayerColors sets the colors assigned to vector layers, in plan order,
// cycling when there are more layers than colors.
func WithLayerColors(colors ...color.Color) RendererOption {
	return func(r *Renderer) {
		r.layerColors = colors
	}
}

// WithLineWidth sets the stroke width for line and polygon features.
func WithLineWidth(lineWidth vg.Length) RendererOption {
	return func(r *Renderer) {
		r.lineWidth = lineWidth
	}
}

// NewRenderer returns a new Renderer with the given options.
func NewRenderer(options ...RendererOption) *Renderer {
	r := &Renderer{
		palette:   TerrainRamp(64),
		lineWidth: vg.Points(1),
	}
	for _, option := range options {
		option(r)
	}
	if len(r.layerColors) == 0 {
		r.layerColors = layerColors(8)
	}
	return r
}

// Plot renders plan: the raster as a heat map scaled to the grid's value
// range, then each vector layer in order, so later layers occlude earlier
// ones. Only features intersecting the grid's extent are drawn.
func (r *Renderer) Plot(plan *RenderPlan) (*plot.Plot, error) {
	p := plot.New()
	grid := plan.Grid()

	heatMap := plotter.NewHeatMap(gridXYZ{grid: grid}, r.palette)
	if statistics, err := grid.Statistics(); err == nil {
		heatMap.Min = statistics.Min
		heatMap.Max = statistics.Max
	}
	p.Add(heatMap)

	extent := grid.Extent()
	for i, layer := range plan.Layers() {
		layerColor := r.layerColors[i%len(r.layerColors)]
		for _, feature := range layer.FeaturesInExtent(extent) {
			if err := r.addFeature(p, feature, layerColor); err != nil {
				return nil, fmt.Errorf("layer %q: %w", layer.Name(), err)
			}
		}
	}

	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	return p, nil
}

func (r *Renderer) addFeature(p *plot.Plot, feature Feature, layerColor color.Color) error {
	xys := make(plotter.XYs, len(feature.Geometry.Coords))
	for i, coord := range feature.Geometry.Coords {
		xys[i] = plotter.XY{X: coord[0], Y: coord[1]}
	}
	switch feature.Geometry.Type {
	case GeometryTypePoint:
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = layerColor
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
	case GeometryTypeLine:
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = layerColor
		line.Width = r.lineWidth
		p.Add(line)
	case GeometryTypePolygon:
		polygon, err := plotter.NewPolygon(xys)
		if err != nil {
			return err
		}
		polygon.LineStyle.Color = layerColor
		polygon.LineStyle.Width = r.lineWidth
		p.Add(polygon)
	default:
		return fmt.Errorf("unknown geometry type: %d", int(feature.Geometry.Type))
	}
	return nil
}

// Save renders plan and writes it to filename. The image format is
// determined by filename's extension, as with plot.Plot.Save.
func (r *Renderer) Save(plan *RenderPlan, width, height vg.Length, filename string) error {
	p, err := r.Plot(plan)
	if err != nil {
		return err
	}
	return p.Save(width, height, filename)
}
