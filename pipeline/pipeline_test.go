package pipeline

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/kestrel-gis/terrane/lidar"

	terrane "github.com/kestrel-gis/terrane"
)

// writeFlatLAS writes a tiny format-0 LAS file covering [x0,x1]x[y0,y1] at a
// constant elevation, arranged as a regular grid so a TIN triangulates it
// without degenerate collinear rows.
func writeFlatLAS(t *testing.T, path string, x0, y0, x1, y1, elevation float64, n int) {
	t.Helper()
	h := &lidar.Header{MinX: x0, MinY: y0, MinZ: elevation, MaxX: x1, MaxY: y1, MaxZ: elevation}
	pc := lidar.NewPointCloud(0, n*n)
	idx := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x := x0 + (x1-x0)*float64(i)/float64(n-1)
			y := y0 + (y1-y0)*float64(j)/float64(n-1)
			pc.X[idx] = int32(x * 100)
			pc.Y[idx] = int32(y * 100)
			pc.Z[idx] = int32(elevation * 100)
			pc.ReturnNumber[idx] = 1
			pc.NumberOfReturns[idx] = 1
			idx++
		}
	}
	h.XScale, h.YScale, h.ZScale = 0.01, 0.01, 0.01
	if err := lidar.WriteLAS(path, h, nil, pc); err != nil {
		t.Fatalf("writeFlatLAS: %v", err)
	}
}

func TestPlanEnumeratesDirectoryAndScansBounds(t *testing.T) {
	dir := t.TempDir()
	writeFlatLAS(t, filepath.Join(dir, "a.las"), 0, 0, 10, 10, 100, 4)
	writeFlatLAS(t, filepath.Join(dir, "b.las"), 10, 0, 20, 10, 100, 4)

	jobs, err := Plan(dir, "")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}
	for _, j := range jobs {
		if j.Input.Bounds.West != 0 && j.Input.Bounds.West != 10 {
			t.Fatalf("unexpected west bound %v for %s", j.Input.Bounds.West, j.Input.Path)
		}
		if filepath.Ext(j.Output) != ".tif" {
			t.Fatalf("Output = %s, want .tif extension", j.Output)
		}
	}
}

func TestPlanSingleFileIsOneJob(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solo.las")
	writeFlatLAS(t, path, 0, 0, 10, 10, 50, 4)

	jobs, err := Plan(path, "")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1", len(jobs))
	}
	if jobs[0].Output != filepath.Join(dir, "solo.tif") {
		t.Fatalf("Output = %s, want solo.tif alongside input", jobs[0].Output)
	}
}

func TestProcessTileTINFlatPlaneYieldsConstantElevation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flat.las")
	writeFlatLAS(t, path, 0, 0, 10, 10, 42, 5)

	jobs, err := Plan(path, "")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	opts := Options{Resolution: 1, Radius: 2, Mode: ModeTIN, Parameter: ParamElevation}
	if err := ProcessTile(jobs[0], jobs, opts); err != nil {
		t.Fatalf("ProcessTile: %v", err)
	}

	out, err := terrane.ReadRaster(jobs[0].Output)
	if err != nil {
		t.Fatalf("ReadRaster: %v", err)
	}
	for row := 1; row < out.Rows-1; row++ {
		for col := 1; col < out.Columns-1; col++ {
			v := out.Get(row, col)
			if v != out.Nodata && math.Abs(v-42) > 0.5 {
				t.Fatalf("Get(%d,%d) = %v, want ~42", row, col, v)
			}
		}
	}
}

func TestRasterizeGriddedDensityIsAreaNormalized(t *testing.T) {
	out := terrane.NewRaster("", 10, 0, 10, 0, 1, 1, -9999)
	samples := []pointSample{
		{x: 5, y: 5, value: 1},
		{x: 5.2, y: 5.2, value: 1},
		{x: 9.9, y: 9.9, value: 1},
	}
	rasterizeGridded(out, samples, Options{Radius: 1, Mode: ModeDensity})

	// spec.md §8 scenario 4: density = neighbour count / (pi * radius^2).
	want := 2 / (math.Pi * 1 * 1)
	if got := out.Get(5, 5); math.Abs(got-want) > 1e-9 {
		t.Fatalf("density at centre cluster = %v, want %v (2 neighbours / pi*r^2)", got, want)
	}
}

func TestRasterizeGriddedNearestInverseDistanceWeights(t *testing.T) {
	out := terrane.NewRaster("", 10, 0, 10, 0, 1, 1, -9999)
	cx, cy := out.GetXFromColumn(5), out.GetYFromRow(5)
	samples := []pointSample{
		{x: cx - 1, y: cy, value: 0},
		{x: cx + 1, y: cy, value: 10},
	}
	rasterizeGridded(out, samples, Options{Radius: 2, Mode: ModeNearest})

	got := out.Get(5, 5)
	if math.Abs(got-5) > 1e-9 {
		t.Fatalf("IDW at equidistant midpoint = %v, want 5 (equal weights)", got)
	}
}

func TestPassesFilterExcludesClassificationAndZRange(t *testing.T) {
	pc := lidar.NewPointCloud(0, 1)
	pc.Classification[0] = 7
	bounds := terrane.BBox{North: 10, South: 0, East: 10, West: 0}

	opts := Options{ExcludeClasses: map[uint8]bool{7: true}}
	if passesFilter(pc, 0, 5, 5, 1, bounds, opts) {
		t.Fatal("expected classification 7 to be excluded")
	}

	opts = Options{HasZFilter: true, MinZ: 10, MaxZ: 20}
	if passesFilter(pc, 0, 5, 5, 1, bounds, opts) {
		t.Fatal("expected z=1 outside [10,20] to be excluded")
	}
}

func TestPassesFilterReturnKinds(t *testing.T) {
	pc := lidar.NewPointCloud(0, 1)
	pc.ReturnNumber[0] = 2
	pc.NumberOfReturns[0] = 2
	bounds := terrane.BBox{North: 10, South: 0, East: 10, West: 0}

	if !passesFilter(pc, 0, 5, 5, 1, bounds, Options{Returns: ReturnsLast}) {
		t.Fatal("return 2 of 2 should count as a last return")
	}
	if passesFilter(pc, 0, 5, 5, 1, bounds, Options{Returns: ReturnsFirst}) {
		t.Fatal("return 2 of 2 should not count as a first return")
	}
}
