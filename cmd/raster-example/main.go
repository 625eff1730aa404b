package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot/vg"

	"github.com/twpayne/go-raster"
)

func run() error {
	rasterPath := flag.String("raster", os.Getenv("RASTER_PATH"), "path to a GeoTIFF raster")
	output := flag.String("output", "", "write a rendered PNG to this path")
	flag.Parse()

	if *rasterPath == "" {
		return errors.New("syntax: raster-example -raster raster.tif [-output out.png] [xmin xmax ymin ymax]")
	}

	source, err := raster.OpenGeoTIFF(os.DirFS(filepath.Dir(*rasterPath)), filepath.Base(*rasterPath))
	if err != nil {
		return err
	}
	defer source.Close()

	ctx := context.Background()
	grid, err := source.Grid(ctx)
	if err != nil {
		return err
	}

	if flag.NArg() == 4 {
		bounds := make([]float64, 4)
		for i := range bounds {
			var err error
			bounds[i], err = strconv.ParseFloat(flag.Arg(i), 64)
			if err != nil {
				return err
			}
		}
		target, err := raster.NewExtent(bounds[0], bounds[1], bounds[2], bounds[3])
		if err != nil {
			return err
		}
		grid, err = grid.Crop(target)
		if err != nil {
			return err
		}
	}

	fmt.Println(grid.Describe())

	if *output != "" {
		plan, err := raster.NewRenderPlan(grid)
		if err != nil {
			return err
		}
		renderer := raster.NewRenderer()
		if err := renderer.Save(plan, 8*vg.Inch, 6*vg.Inch, *output); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
