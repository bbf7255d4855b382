package terrane

import (
	"path/filepath"
	"testing"
)

func TestRasterGetSetOutOfBounds(t *testing.T) {
	r := NewRaster(filepath.Join(t.TempDir(), "out.rst"), 10, 0, 10, 0, 1, 1, -9999)
	if r.Rows != 10 || r.Columns != 10 {
		t.Fatalf("unexpected dims %d x %d", r.Rows, r.Columns)
	}

	if got := r.Get(3, 3); got != -9999 {
		t.Fatalf("expected nodata, got %v", got)
	}
	r.Set(3, 3, 123.5)
	if got := r.Get(3, 3); got != 123.5 {
		t.Fatalf("expected 123.5, got %v", got)
	}

	if got := r.Get(-1, 0); got != -9999 {
		t.Fatalf("expected nodata for out-of-bounds row, got %v", got)
	}
	if got := r.Get(0, 100); got != -9999 {
		t.Fatalf("expected nodata for out-of-bounds column, got %v", got)
	}
}

func TestRasterRowAccess(t *testing.T) {
	r := NewRaster(filepath.Join(t.TempDir(), "out.rst"), 4, 0, 4, 0, 1, 1, -1)
	row := make([]float64, r.Columns)
	for i := range row {
		row[i] = float64(i)
	}
	r.SetRow(1, row)
	got := r.GetRow(1)
	for i := range row {
		if got[i] != row[i] {
			t.Fatalf("row mismatch at %d: want %v got %v", i, row[i], got[i])
		}
	}
}

func TestRasterCoordinateRoundTrip(t *testing.T) {
	r := NewRaster(filepath.Join(t.TempDir(), "out.rst"), 100, 0, 100, 0, 10, 10, -1)
	row := r.GetRowFromY(r.GetYFromRow(3))
	if row != 3 {
		t.Fatalf("expected row 3, got %d", row)
	}
	col := r.GetColumnFromX(r.GetXFromColumn(4))
	if col != 4 {
		t.Fatalf("expected column 4, got %d", col)
	}
}

func TestRasterWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.rst")
	r := NewRaster(path, 10, 0, 10, 0, 1, 1, -9999)
	r.EPSG = 4326
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Columns; col++ {
			r.Set(row, col, float64(row*r.Columns+col))
		}
	}
	if err := r.Write(); err != nil {
		t.Fatal(err)
	}

	r2, err := ReadRaster(path)
	if err != nil {
		t.Fatal(err)
	}
	if r2.Rows != r.Rows || r2.Columns != r.Columns || r2.EPSG != r.EPSG {
		t.Fatalf("header mismatch: %+v vs %+v", r2, r)
	}
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Columns; col++ {
			if r2.Get(row, col) != r.Get(row, col) {
				t.Fatalf("cell (%d,%d) mismatch: want %v got %v", row, col, r.Get(row, col), r2.Get(row, col))
			}
		}
	}
}

func TestRasterGeoTIFFLikeMetadataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tif")
	r := NewRaster(path, 4, 0, 4, 0, 1, 1, -1)
	r.AddMetadataEntry("source=terrane-test")
	r.AddMetadataEntry("units=metres")
	if err := r.Write(); err != nil {
		t.Fatal(err)
	}

	r2, err := ReadRaster(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(r2.Metadata) != 2 || r2.Metadata[0] != "source=terrane-test" || r2.Metadata[1] != "units=metres" {
		t.Fatalf("unexpected metadata %v", r2.Metadata)
	}
}

func TestDetermineRasterFormat(t *testing.T) {
	if DetermineRasterFormat("a.tif") != RasterFormatGeoTIFFLike {
		t.Fatal("expected GeoTIFF-like for .tif")
	}
	if DetermineRasterFormat("a.rst") != RasterFormatWhitebox {
		t.Fatal("expected whitebox format for .rst")
	}
}

func TestRasterMinMax(t *testing.T) {
	r := NewRaster(filepath.Join(t.TempDir(), "out.rst"), 3, 0, 3, 0, 1, 1, -1)
	r.Set(0, 0, 5)
	r.Set(1, 1, -3)
	r.Set(2, 2, 10)
	min, max := r.MinMax()
	if min != -3 || max != 10 {
		t.Fatalf("expected min=-3 max=10, got min=%v max=%v", min, max)
	}
}
