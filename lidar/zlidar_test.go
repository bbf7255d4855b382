package lidar

import (
	"path/filepath"
	"testing"
)

func TestZLidarRoundTripDeflate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.zlidar")

	pc := samplePointCloud(3, 1234) // spans multiple blocks at a smaller BlockSize override would be nice, but 1234 < BlockSize exercises the tail-block path
	h := baseHeader()

	if err := WriteZLidar(path, h, pc, CompressionDeflate, 6); err != nil {
		t.Fatalf("WriteZLidar: %v", err)
	}

	got, err := ReadZLidar(path)
	if err != nil {
		t.Fatalf("ReadZLidar: %v", err)
	}
	if got.Points.Len() != pc.Len() {
		t.Fatalf("point count mismatch: got %d want %d", got.Points.Len(), pc.Len())
	}
	for i := 0; i < pc.Len(); i++ {
		if got.Points.X[i] != pc.X[i] || got.Points.Y[i] != pc.Y[i] || got.Points.Z[i] != pc.Z[i] {
			t.Fatalf("xyz mismatch at %d: got (%d,%d,%d) want (%d,%d,%d)",
				i, got.Points.X[i], got.Points.Y[i], got.Points.Z[i], pc.X[i], pc.Y[i], pc.Z[i])
		}
		if got.Points.Intensity[i] != pc.Intensity[i] {
			t.Fatalf("intensity mismatch at %d: got %d want %d", i, got.Points.Intensity[i], pc.Intensity[i])
		}
		if got.Points.Classification[i] != pc.Classification[i] {
			t.Fatalf("classification mismatch at %d", i)
		}
		if got.Points.GPSTime[i] != pc.GPSTime[i] {
			t.Fatalf("gps mismatch at %d: got %v want %v", i, got.Points.GPSTime[i], pc.GPSTime[i])
		}
		if got.Points.Red[i] != pc.Red[i] || got.Points.Green[i] != pc.Green[i] || got.Points.Blue[i] != pc.Blue[i] {
			t.Fatalf("rgb mismatch at %d", i)
		}
	}
}

func TestZLidarRoundTripBrotliMultiBlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "multiblock.zlidar")

	n := BlockSize + 777
	pc := samplePointCloud(1, n)
	h := baseHeader()

	if err := WriteZLidar(path, h, pc, CompressionBrotli, 5); err != nil {
		t.Fatalf("WriteZLidar: %v", err)
	}

	got, err := ReadZLidar(path)
	if err != nil {
		t.Fatalf("ReadZLidar: %v", err)
	}
	if got.Points.Len() != n {
		t.Fatalf("point count mismatch: got %d want %d", got.Points.Len(), n)
	}
	for i := 0; i < n; i++ {
		if got.Points.X[i] != pc.X[i] || got.Points.Y[i] != pc.Y[i] || got.Points.Z[i] != pc.Z[i] {
			t.Fatalf("xyz mismatch at %d (crosses block boundary at %d)", i, BlockSize)
		}
	}
}

func TestZLidarWideIntensityRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wide-intensity.zlidar")

	pc := samplePointCloud(0, 10)
	for i := range pc.Intensity {
		pc.Intensity[i] = uint16(1000 + i) // force the wide (>=256) encoding path
	}
	h := baseHeader()

	if err := WriteZLidar(path, h, pc, CompressionDeflate, 1); err != nil {
		t.Fatalf("WriteZLidar: %v", err)
	}
	got, err := ReadZLidar(path)
	if err != nil {
		t.Fatalf("ReadZLidar: %v", err)
	}
	for i := range pc.Intensity {
		if got.Points.Intensity[i] != pc.Intensity[i] {
			t.Fatalf("intensity mismatch at %d: got %d want %d", i, got.Points.Intensity[i], pc.Intensity[i])
		}
	}
}

func TestZLidarV1LegacyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.zlidar")

	pc := samplePointCloud(3, 600)
	h := baseHeader()

	if err := WriteZLidarV1(path, h, pc); err != nil {
		t.Fatalf("WriteZLidarV1: %v", err)
	}

	got, err := ReadZLidar(path)
	if err != nil {
		t.Fatalf("ReadZLidar (v1.0 dispatch): %v", err)
	}
	if got.Header.VersionMinor != 0 {
		t.Fatalf("expected version 1.0, got 1.%d", got.Header.VersionMinor)
	}
	for i := 0; i < pc.Len(); i++ {
		if got.Points.X[i] != pc.X[i] || got.Points.Y[i] != pc.Y[i] || got.Points.Z[i] != pc.Z[i] {
			t.Fatalf("xyz mismatch at %d", i)
		}
		if got.Points.Intensity[i] != pc.Intensity[i] {
			t.Fatalf("intensity mismatch at %d", i)
		}
	}
}

func TestReturnPositionClassOrdering(t *testing.T) {
	cases := []struct {
		rn, nr uint8
		want   uint8
	}{
		{1, 1, 0}, // only return
		{3, 3, 1}, // last of three
		{2, 3, 2}, // intermediate
		{1, 3, 3}, // first of three
	}
	for _, c := range cases {
		if got := returnPositionClass(c.rn, c.nr); got != c.want {
			t.Fatalf("returnPositionClass(%d,%d) = %d, want %d", c.rn, c.nr, got, c.want)
		}
	}
}
