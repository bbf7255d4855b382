package terrane

import "testing"

func TestArray2DGetSetOutOfBounds(t *testing.T) {
	a := NewArray2D[int](3, 3, -1, 0)

	if got := a.Get(1, 1); got != 0 {
		t.Fatalf("expected nodata 0, got %d", got)
	}

	a.Set(1, 1, 42)
	if got := a.Get(1, 1); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}

	if got := a.Get(-1, 0); got != -1 {
		t.Fatalf("expected out-of-bounds sentinel -1, got %d", got)
	}
	if got := a.Get(0, 10); got != -1 {
		t.Fatalf("expected out-of-bounds sentinel -1, got %d", got)
	}

	// out-of-bounds writes are silently dropped
	a.Set(5, 5, 99)
}

func TestArray2DReset(t *testing.T) {
	a := NewArray2D[float64](2, 2, -9999, -1)
	a.Set(0, 0, 7.5)
	a.Reset(0, 0)
	if got := a.Get(0, 0); got != -1 {
		t.Fatalf("expected reset to nodata -1, got %v", got)
	}
}

func TestArray2DDimensions(t *testing.T) {
	a := NewArray2D[int](5, 7, 0, 0)
	if a.Rows() != 5 || a.Columns() != 7 {
		t.Fatalf("unexpected dims %d x %d", a.Rows(), a.Columns())
	}
	if a.Nodata() != 0 {
		t.Fatalf("unexpected nodata %d", a.Nodata())
	}
}
