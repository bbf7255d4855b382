package spatial

import "testing"

func samplePoints() (xs, ys []float64, payloads []any) {
	xs = []float64{0, 10, 0, 10, 5, 100}
	ys = []float64{0, 0, 10, 10, 5, 100}
	payloads = []any{"sw", "se", "nw", "ne", "centre", "far"}
	return
}

func TestFixedRadiusIndexSearch(t *testing.T) {
	xs, ys, payloads := samplePoints()
	idx := NewFixedRadiusIndex(xs, ys, payloads)

	if idx.Len() != len(xs) {
		t.Fatalf("Len() = %d, want %d", idx.Len(), len(xs))
	}

	hits := idx.Search(5, 5, 8)
	if len(hits) != 1 || hits[0] != "centre" {
		t.Fatalf("Search(5,5,8) = %v, want [centre]", hits)
	}

	hits = idx.Search(0, 0, 0.5)
	if len(hits) != 1 || hits[0] != "sw" {
		t.Fatalf("Search(0,0,0.5) = %v, want [sw]", hits)
	}

	hits = idx.Search(-1000, -1000, 1)
	if len(hits) != 0 {
		t.Fatalf("expected no hits far from any point, got %v", hits)
	}
}

func TestKDTreeWithinAndNearest(t *testing.T) {
	xs, ys, payloads := samplePoints()
	tree := NewKDTree(xs, ys, payloads)

	if tree.Len() != len(xs) {
		t.Fatalf("Len() = %d, want %d", tree.Len(), len(xs))
	}

	within := tree.Within(5, 5, 64) // r=8, r^2=64
	if len(within) != 1 || within[0] != "centre" {
		t.Fatalf("Within(5,5,64) = %v, want [centre]", within)
	}

	nearest := tree.Nearest(0, 0, 3)
	if len(nearest) != 3 {
		t.Fatalf("Nearest(0,0,3) returned %d results, want 3", len(nearest))
	}
	if nearest[0] != "sw" {
		t.Fatalf("Nearest(0,0,3)[0] = %v, want sw (exact match)", nearest[0])
	}
}
