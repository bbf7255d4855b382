package lidar

import (
	"path/filepath"
	"testing"
	"time"
)

func samplePointCloud(format uint8, n int) *PointCloud {
	pc := NewPointCloud(format, n)
	for i := 0; i < n; i++ {
		pc.X[i] = int32(1000 + i*37)
		pc.Y[i] = int32(2000 - i*11)
		pc.Z[i] = int32(300 + i%5)
		pc.Intensity[i] = uint16(i % 600)
		pc.ReturnNumber[i] = uint8(i%3 + 1)
		pc.NumberOfReturns[i] = uint8(3)
		pc.Classification[i] = uint8(i % 9)
		pc.ScanAngle[i] = float64(i%180) - 90
		pc.UserData[i] = uint8(i % 256)
		pc.PointSourceID[i] = uint16(i % 4096)
		if pc.GPSTime != nil {
			pc.GPSTime[i] = float64(i) * 0.01
		}
		if pc.Red != nil {
			pc.Red[i], pc.Green[i], pc.Blue[i] = uint16(i), uint16(i*2), uint16(i*3)
		}
	}
	return pc
}

func baseHeader() *Header {
	return &Header{
		SystemID:     "terrane",
		GeneratingSW: "terrane-test",
		XOffset:      0, YOffset: 0, ZOffset: 0,
		MinX: 1000, MaxX: 5000,
		MinY: 1000, MaxY: 5000,
		MinZ: 0, MaxZ: 500,
	}
}

func TestLASRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.las")

	pc := samplePointCloud(3, 250)
	h := baseHeader()

	if err := WriteLAS(path, h, nil, pc); err != nil {
		t.Fatalf("WriteLAS: %v", err)
	}

	got, err := ReadLAS(path)
	if err != nil {
		t.Fatalf("ReadLAS: %v", err)
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
			t.Fatalf("intensity mismatch at %d", i)
		}
		if got.Points.Classification[i] != pc.Classification[i] {
			t.Fatalf("classification mismatch at %d", i)
		}
	}
}

func TestLASWriteDowngradesUnsupportedExtendedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "downgrade.las")

	pc := samplePointCloud(8, 10) // format 8 -> downgrades to 3, drops NIR
	h := baseHeader()

	if err := WriteLAS(path, h, nil, pc); err != nil {
		t.Fatalf("WriteLAS: %v", err)
	}
	got, err := ReadLAS(path)
	if err != nil {
		t.Fatalf("ReadLAS: %v", err)
	}
	if got.Header.PointFormat != 3 {
		t.Fatalf("expected downgraded format 3, got %d", got.Header.PointFormat)
	}
}

func TestReadLASHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "header.las")

	pc := samplePointCloud(1, 50)
	h := baseHeader()
	if err := WriteLAS(path, h, nil, pc); err != nil {
		t.Fatalf("WriteLAS: %v", err)
	}

	gotH, _, err := ReadLASHeaderOnly(path)
	if err != nil {
		t.Fatalf("ReadLASHeaderOnly: %v", err)
	}
	if gotH.NumberOfPoints != 50 {
		t.Fatalf("expected 50 points, got %d", gotH.NumberOfPoints)
	}
	if gotH.MinX != 1000 || gotH.MaxX != 5000 {
		t.Fatalf("bbox not preserved: minx=%v maxx=%v", gotH.MinX, gotH.MaxX)
	}
}

func TestStampCreationDateIsWithinYear(t *testing.T) {
	h := &Header{}
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	h.StampCreationDate(now)
	if h.CreationDay < 1 || h.CreationDay > 366 {
		t.Fatalf("creation day out of range: %d", h.CreationDay)
	}
	if h.CreationYear != 2026 {
		t.Fatalf("creation year mismatch: got %d want 2026", h.CreationYear)
	}
}
