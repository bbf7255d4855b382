package pipeline

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/kestrel-gis/terrane/lidar"
	"github.com/kestrel-gis/terrane/spatial"
	"github.com/kestrel-gis/terrane/tin"

	terrane "github.com/kestrel-gis/terrane"
)

// ReturnFilter is the `--returns` enum, per spec.md §6.
type ReturnFilter int

const (
	ReturnsAll ReturnFilter = iota
	ReturnsLast
	ReturnsFirst
)

// Mode picks a tile's rasterisation flavour, per spec.md §4.6 step 4.
type Mode int

const (
	ModeDensity Mode = iota
	ModeNearest
	ModeTIN
	ModeRGB
)

// Parameter is the `--parameter` enum (rgb is handled through Mode instead,
// since it needs three value channels rather than one).
type Parameter int

const (
	ParamElevation Parameter = iota
	ParamIntensity
	ParamClass
	ParamReturnNumber
	ParamNumberOfReturns
	ParamScanAngle
	ParamUserData
)

// Options configures one pipeline run, collecting the flags spec.md §6 lists
// for the tile pipeline tools.
type Options struct {
	Resolution            float64
	Radius                float64
	Returns               ReturnFilter
	ExcludeClasses        map[uint8]bool
	HasZFilter            bool
	MinZ, MaxZ            float64
	MaxTriangleEdgeLength float64
	Mode                  Mode
	Parameter             Parameter
	OutputDir             string
	Verbose               bool
}

// pointSample is one filtered point surviving into a tile's rasterisation
// input: its planar location plus whichever value channel(s) the chosen
// mode needs.
type pointSample struct {
	x, y, value float64
	r, g, b     float64
}

func openPoints(path string) (*lidar.LasFile, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zlidar":
		return lidar.ReadZLidar(path)
	case ".zip":
		return lidar.OpenPointCloud(path)
	default:
		return lidar.ReadLAS(path)
	}
}

func passesFilter(pc *lidar.PointCloud, i int, x, y, z float64, bounds terrane.BBox, opts Options) bool {
	if !bounds.Contains(x, y) {
		return false
	}
	if opts.ExcludeClasses != nil && opts.ExcludeClasses[pc.Classification[i]] {
		return false
	}
	if opts.HasZFilter && (z < opts.MinZ || z > opts.MaxZ) {
		return false
	}
	switch opts.Returns {
	case ReturnsLast:
		return pc.IsLateReturn(i)
	case ReturnsFirst:
		return pc.ReturnNumber[i] == 1
	default:
		return true
	}
}

func pointValue(pc *lidar.PointCloud, i int, z float64, param Parameter) float64 {
	switch param {
	case ParamIntensity:
		return float64(pc.Intensity[i])
	case ParamClass:
		return float64(pc.Classification[i])
	case ParamReturnNumber:
		return float64(pc.ReturnNumber[i])
	case ParamNumberOfReturns:
		return float64(pc.NumberOfReturns[i])
	case ParamScanAngle:
		return pc.ScanAngle[i]
	case ParamUserData:
		return float64(pc.UserData[i])
	default:
		return z
	}
}

// gatherSamples implements spec.md §4.6 step 4's point-read clause: every
// input whose bbox overlaps haloBounds is opened in full and filtered,
// regardless of which tile originally owns it — this is what makes a tile's
// rasterisation seamless across its neighbours.
func gatherSamples(jobs []Job, haloBounds terrane.BBox, opts Options) ([]pointSample, error) {
	var samples []pointSample
	for _, j := range jobs {
		if !j.Input.Bounds.Intersects(haloBounds) {
			continue
		}
		lf, err := openPoints(j.Input.Path)
		if err != nil {
			return nil, err
		}
		h, pc := lf.Header, lf.Points
		for i := 0; i < pc.Len(); i++ {
			x, y, z := pc.WorldXYZ(i, h.XScale, h.YScale, h.ZScale, h.XOffset, h.YOffset, h.ZOffset)
			if !passesFilter(pc, i, x, y, z, haloBounds, opts) {
				continue
			}
			s := pointSample{x: x, y: y}
			if opts.Mode == ModeRGB {
				r, g, b, err := pc.RGB(i)
				if err != nil {
					continue
				}
				s.r, s.g, s.b = float64(r), float64(g), float64(b)
			} else {
				s.value = pointValue(pc, i, z, opts.Parameter)
			}
			samples = append(samples, s)
		}
	}
	return samples, nil
}

// ProcessTile runs spec.md §4.6 steps 4-5 for one job: halo expansion,
// filtered point gathering across the whole input set, rasterisation, and
// an independent write of the finished tile.
func ProcessTile(job Job, jobs []Job, opts Options) error {
	halo := opts.Radius
	if halo <= 0 {
		halo = 2
	}
	haloBounds := job.Input.Bounds.Expand(halo)

	samples, err := gatherSamples(jobs, haloBounds, opts)
	if err != nil {
		return err
	}

	b := job.Input.Bounds
	rows := int(math.Ceil(b.Height() / opts.Resolution))
	cols := int(math.Ceil(b.Width() / opts.Resolution))
	if rows <= 0 || cols <= 0 {
		return terrane.ErrInvalidInput
	}
	out := terrane.InitializeFromConfig(job.Output, rows, cols, b.North, b.South, b.East, b.West, -9999)
	out.EPSG = job.Input.EPSG
	out.PhotometricContinuous = opts.Mode != ModeRGB

	switch opts.Mode {
	case ModeDensity, ModeNearest:
		rasterizeGridded(out, samples, opts)
	case ModeRGB:
		rasterizeTINRGB(out, samples, opts)
	default:
		rasterizeTIN(out, samples, opts)
	}

	return out.Write()
}

// rasterizeGridded implements the "gridded aggregation" flavour: points go
// into a fixed-radius index, then every output cell centre queries its
// neighbours and aggregates them by count (density) or inverse-distance
// weighting (nearest-neighbour), per spec.md §4.6 step 4.
func rasterizeGridded(out *terrane.Raster, samples []pointSample, opts Options) {
	if len(samples) == 0 {
		return
	}
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	payloads := make([]any, len(samples))
	for i, s := range samples {
		xs[i], ys[i] = s.x, s.y
		payloads[i] = s
	}
	idx := spatial.NewFixedRadiusIndex(xs, ys, payloads)

	radius := opts.Radius
	if radius <= 0 {
		radius = 2
	}

	for row := 0; row < out.Rows; row++ {
		for col := 0; col < out.Columns; col++ {
			x, y := out.GetXFromColumn(col), out.GetYFromRow(row)
			hits := idx.Search(x, y, radius)
			if len(hits) == 0 {
				continue
			}
			if opts.Mode == ModeDensity {
				area := math.Pi * radius * radius
				out.Set(row, col, float64(len(hits))/area)
				continue
			}

			var weightSum, valueSum float64
			exact := false
			for _, h := range hits {
				s := h.(pointSample)
				dx, dy := s.x-x, s.y-y
				distSq := dx*dx + dy*dy
				if distSq == 0 {
					weightSum, valueSum, exact = 1, s.value, true
					break
				}
				w := 1 / distSq
				weightSum += w
				valueSum += w * s.value
			}
			if exact || weightSum > 0 {
				out.Set(row, col, valueSum/weightSum)
			}
		}
	}
}

// rasterizeTIN implements the TIN facet flavour for a single value channel.
func rasterizeTIN(out *terrane.Raster, samples []pointSample, opts Options) {
	if len(samples) < 3 {
		return
	}
	points := make([]tin.Point2D, len(samples))
	values := make([]float64, len(samples))
	for i, s := range samples {
		points[i] = tin.Point2D{X: s.x, Y: s.y}
		values[i] = s.value
	}
	surface, err := tin.Triangulate(points)
	if err != nil {
		return
	}
	tin.Rasterize(out, surface, values, opts.MaxTriangleEdgeLength)
}

// rasterizeTINRGB implements RGB mode: one triangulation, three independent
// plane fits, packed into a single 32-bit RGBA cell value.
func rasterizeTINRGB(out *terrane.Raster, samples []pointSample, opts Options) {
	if len(samples) < 3 {
		return
	}
	points := make([]tin.Point2D, len(samples))
	red := make([]float64, len(samples))
	green := make([]float64, len(samples))
	blue := make([]float64, len(samples))
	for i, s := range samples {
		points[i] = tin.Point2D{X: s.x, Y: s.y}
		red[i], green[i], blue[i] = s.r, s.g, s.b
	}
	surface, err := tin.Triangulate(points)
	if err != nil {
		return
	}
	tin.RasterizeRGB(out, surface, red, green, blue, opts.MaxTriangleEdgeLength)
}
