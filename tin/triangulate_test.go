package tin

import (
	"math"
	"testing"

	terrane "github.com/kestrel-gis/terrane"
)

func TestRasterizeFlatPlaneYieldsConstantElevation(t *testing.T) {
	points := []Point2D{{0, 0}, {10, 0}, {0, 10}, {10, 10}}
	values := []float64{5, 5, 5, 5}

	surface, err := Triangulate(points)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	if surface.NumTriangles() < 2 {
		t.Fatalf("NumTriangles() = %d, want at least 2 for a square", surface.NumTriangles())
	}

	out := terrane.NewRaster("", 10, 0, 10, 0, 1, 1, -9999)
	Rasterize(out, surface, values, 0)

	for row := 1; row < 9; row++ {
		for col := 1; col < 9; col++ {
			if v := out.Get(row, col); v != -9999 && math.Abs(v-5) > 1e-9 {
				t.Fatalf("Get(%d,%d) = %v, want 5 (flat plane)", row, col, v)
			}
		}
	}
}

func TestRasterizeSkipsOversizedTriangles(t *testing.T) {
	// A sliver far taller in elevation than it is wide in plan: any
	// max_triangle_edge_length small enough to reject it must leave the
	// grid untouched (still nodata).
	points := []Point2D{{0, 0}, {1, 0}, {0, 1}}
	values := []float64{0, 1000, 2000}

	surface, err := Triangulate(points)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}

	out := terrane.NewRaster("", 1, 0, 1, 0, 0.5, 0.5, -9999)
	Rasterize(out, surface, values, 1) // max edge length 1, far less than the elevation jump

	for row := 0; row < out.Rows; row++ {
		for col := 0; col < out.Columns; col++ {
			if out.Get(row, col) != -9999 {
				t.Fatalf("Get(%d,%d) = %v, want untouched nodata (triangle should be skipped)", row, col, out.Get(row, col))
			}
		}
	}
}

func TestRasterizeRGBPacksChannels(t *testing.T) {
	points := []Point2D{{0, 0}, {10, 0}, {0, 10}, {10, 10}}
	red := []float64{10, 10, 10, 10}
	green := []float64{20, 20, 20, 20}
	blue := []float64{30, 30, 30, 30}

	surface, err := Triangulate(points)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}

	out := terrane.NewRaster("", 10, 0, 10, 0, 1, 1, -9999)
	RasterizeRGB(out, surface, red, green, blue, 0)

	packed := uint32(out.Get(5, 5))
	wantR, wantG, wantB, wantA := uint32(10), uint32(20), uint32(30), uint32(255)
	if got := packed & 0xFF; got != wantR {
		t.Fatalf("red channel = %d, want %d", got, wantR)
	}
	if got := (packed >> 8) & 0xFF; got != wantG {
		t.Fatalf("green channel = %d, want %d", got, wantG)
	}
	if got := (packed >> 16) & 0xFF; got != wantB {
		t.Fatalf("blue channel = %d, want %d", got, wantB)
	}
	if got := (packed >> 24) & 0xFF; got != wantA {
		t.Fatalf("alpha channel = %d, want %d", got, wantA)
	}
}
