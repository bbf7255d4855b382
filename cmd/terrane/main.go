package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kestrel-gis/terrane/breach"
	"github.com/kestrel-gis/terrane/pipeline"

	terrane "github.com/kestrel-gis/terrane"
)

// runBreach implements the `breach` command: least-cost depression breaching
// (and optional filling) over a single DEM, per spec.md §4.5/§6.
func runBreach(c *cli.Context) error {
	input, err := terrane.ReadRaster(c.String("dem"))
	if err != nil {
		return err
	}

	opts := breach.Options{
		MaxDist:       c.Int("dist"),
		MaxCost:       c.Float64("max_cost"),
		MinDist:       c.Bool("min_dist"),
		FlatIncrement: c.Float64("flat_increment"),
		Fill:          c.Bool("fill"),
		Verbose:       c.Bool("verbose"),
	}
	if opts.MaxDist == 0 {
		opts.MaxDist = input.Rows + input.Columns
	}
	if opts.MaxCost == 0 {
		opts.MaxCost = 1e12
	}

	output, result := breach.Breach(input, opts)
	output.AddMetadataEntry("terrane breach: " + strconv.Itoa(result.PitsFound) + " pits, " +
		strconv.Itoa(result.Solved) + " solved, " + strconv.Itoa(result.Unsolved) + " unsolved")

	output.EPSG = input.EPSG
	if path := c.String("output"); path != "" {
		output.SetPath(path)
	}
	return output.Write()
}

// parseExcludeClasses turns a "3,4,5" flag value into a lookup set.
func parseExcludeClasses(s string) map[uint8]bool {
	if s == "" {
		return nil
	}
	out := make(map[uint8]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if v, err := strconv.Atoi(part); err == nil {
			out[uint8(v)] = true
		}
	}
	return out
}

func parseReturns(s string) pipeline.ReturnFilter {
	switch s {
	case "last":
		return pipeline.ReturnsLast
	case "first":
		return pipeline.ReturnsFirst
	default:
		return pipeline.ReturnsAll
	}
}

func parseParameter(s string) (pipeline.Parameter, pipeline.Mode) {
	switch s {
	case "intensity":
		return pipeline.ParamIntensity, pipeline.ModeTIN
	case "class":
		return pipeline.ParamClass, pipeline.ModeTIN
	case "return_number":
		return pipeline.ParamReturnNumber, pipeline.ModeTIN
	case "number_of_returns":
		return pipeline.ParamNumberOfReturns, pipeline.ModeTIN
	case "scan angle":
		return pipeline.ParamScanAngle, pipeline.ModeTIN
	case "user data":
		return pipeline.ParamUserData, pipeline.ModeTIN
	case "rgb":
		return pipeline.ParamElevation, pipeline.ModeRGB
	default:
		return pipeline.ParamElevation, pipeline.ModeTIN
	}
}

// runTin implements the TIN gridding tool's tile pipeline, per spec.md §4.6.
func runTin(c *cli.Context) error {
	param, mode := parseParameter(c.String("parameter"))
	opts := pipeline.Options{
		Resolution:            c.Float64("resolution"),
		Radius:                c.Float64("radius"),
		Returns:               parseReturns(c.String("returns")),
		ExcludeClasses:        parseExcludeClasses(c.String("exclude_cls")),
		MaxTriangleEdgeLength: c.Float64("max_triangle_edge_length"),
		Mode:                  mode,
		Parameter:             param,
		OutputDir:             c.String("output"),
		Verbose:               c.Bool("verbose"),
	}
	if minz, maxz := c.Float64("minz"), c.Float64("maxz"); minz != 0 || maxz != 0 {
		opts.HasZFilter = true
		opts.MinZ, opts.MaxZ = minz, maxz
	}
	if opts.Resolution == 0 {
		opts.Resolution = 1
	}
	return pipeline.Run(c.String("dem"), opts)
}

// runDensity implements the point-density gridding tool's tile pipeline.
func runDensity(c *cli.Context) error {
	opts := pipeline.Options{
		Resolution:     c.Float64("resolution"),
		Radius:         c.Float64("radius"),
		Returns:        parseReturns(c.String("returns")),
		ExcludeClasses: parseExcludeClasses(c.String("exclude_cls")),
		Mode:           pipeline.ModeDensity,
		OutputDir:      c.String("output"),
		Verbose:        c.Bool("verbose"),
	}
	if opts.Resolution == 0 {
		opts.Resolution = 1
	}
	return pipeline.Run(c.String("dem"), opts)
}

func main() {
	commonFlags := []cli.Flag{
		&cli.StringFlag{Name: "dem", Aliases: []string{"i"}, Usage: "Input file or directory (including extension)."},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output raster file or directory (including extension)."},
		&cli.Float64Flag{Name: "resolution", Usage: "Output cell size, in the input's horizontal units."},
		&cli.Float64Flag{Name: "radius", Usage: "Search radius (also used as the tile halo when nonzero)."},
		&cli.StringFlag{Name: "returns", Value: "all", Usage: "Return filter: all | last | first."},
		&cli.StringFlag{Name: "exclude_cls", Usage: "Comma-separated classification codes to exclude."},
		&cli.Float64Flag{Name: "minz", Usage: "Minimum elevation to retain."},
		&cli.Float64Flag{Name: "maxz", Usage: "Maximum elevation to retain."},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	}

	app := &cli.App{
		Name:  "terrane",
		Usage: "depression breaching and LiDAR tile gridding",
		Commands: []*cli.Command{
			{
				Name:  "breach",
				Usage: "least-cost depression breaching over a DEM",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dem", Aliases: []string{"i"}, Required: true, Usage: "Input DEM raster."},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output raster path."},
					&cli.IntFlag{Name: "dist", Usage: "Maximum breach channel length, in cells."},
					&cli.Float64Flag{Name: "max_cost", Usage: "Maximum accumulated breach cost."},
					&cli.BoolFlag{Name: "min_dist", Usage: "Weight cost by cell distance rather than pure elevation reduction."},
					&cli.Float64Flag{Name: "flat_increment", Usage: "Elevation step used to force a descending breach profile."},
					&cli.BoolFlag{Name: "fill", Usage: "Fill any depression left unbreached."},
					&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
				},
				Action: runBreach,
			},
			{
				Name:  "tin",
				Usage: "TIN facet gridding of a LiDAR tile collection",
				Flags: append(commonFlags, &cli.StringFlag{
					Name:  "parameter",
					Value: "elevation",
					Usage: "elevation | intensity | class | return_number | number_of_returns | scan angle | rgb | user data",
				}, &cli.Float64Flag{Name: "max_triangle_edge_length", Usage: "Skip triangles whose longest edge exceeds this length."}),
				Action: runTin,
			},
			{
				Name:  "density",
				Usage: "fixed-radius point-density gridding of a LiDAR tile collection",
				Flags: commonFlags,
				Action: runDensity,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
