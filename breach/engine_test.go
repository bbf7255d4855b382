package breach

import (
	"testing"

	terrane "github.com/kestrel-gis/terrane"
)

// plateauWithPit builds a 5x5, 1-unit-resolution DEM: a flat 100 plateau
// with a pit at its centre and a single low outlet cell two steps north of
// the pit, matching spec.md §8's worked breaching example.
func plateauWithPit() *terrane.Raster {
	dem := terrane.NewRaster("", 5, 0, 5, 0, 1, 1, -9999)
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			dem.Set(row, col, 100)
		}
	}
	dem.Set(2, 2, 50)
	dem.Set(0, 2, 49)
	return dem
}

func TestBreachSolvesSinglePit(t *testing.T) {
	dem := plateauWithPit()

	out, result := Breach(dem, Options{MaxDist: 10, MaxCost: 1e12, FlatIncrement: 0.01})

	if result.PitsFound != 1 {
		t.Fatalf("PitsFound = %d, want 1", result.PitsFound)
	}
	if result.Solved != 1 || result.Unsolved != 0 {
		t.Fatalf("Solved=%d Unsolved=%d, want 1/0", result.Solved, result.Unsolved)
	}

	centre := out.Get(2, 2)
	mid := out.Get(1, 2)
	outlet := out.Get(0, 2)

	if outlet != 49 {
		t.Fatalf("outlet cell changed: got %v, want 49 (unchanged)", outlet)
	}
	if !(centre <= 50 && centre > mid) {
		t.Fatalf("expected centre (%v) > mid (%v) and centre <= original 50", centre, mid)
	}
	if !(mid > outlet) {
		t.Fatalf("expected mid (%v) > outlet (%v)", mid, outlet)
	}
	// §8 monotonicity: each step down the breach path drops by at least flat_increment.
	if centre-mid < 0.01-1e-9 {
		t.Fatalf("centre->mid step %v smaller than flat_increment", centre-mid)
	}
}

func TestBreachAbandonsWhenCostExceeded(t *testing.T) {
	dem := plateauWithPit()

	_, result := Breach(dem, Options{MaxDist: 10, MaxCost: 0.1, FlatIncrement: 0.01})

	if result.Solved != 0 || result.Unsolved != 1 {
		t.Fatalf("Solved=%d Unsolved=%d, want 0/1 (cost 0.1 can't reach the outlet)", result.Solved, result.Unsolved)
	}
}

func TestBreachWithFillResolvesUnsolvedPits(t *testing.T) {
	dem := plateauWithPit()

	out, result := Breach(dem, Options{MaxDist: 10, MaxCost: 0.1, FlatIncrement: 0.01, Fill: true})

	if result.Unsolved != 1 {
		t.Fatalf("Unsolved = %d, want 1 (recorded before fill runs)", result.Unsolved)
	}

	centre := out.Get(2, 2)
	// the discovery-phase raise leaves the pit near the plateau; fill must
	// not leave it at its raw original elevation, since that's still a pit
	// relative to its raised surroundings.
	if centre < 99 {
		t.Fatalf("expected fill to leave the centre near the flooded plateau level, got %v", centre)
	}
}

// TestFillResolvesWidePlateauMonotonically builds a 15x15 plateau at 100
// with a deep pit at its centre and a single low outlet on the top edge,
// seven cells due north of the pit, wide enough that the flat-resolution walk must cross more than a
// couple of rings to reach every interior cell. Every cell the walk touches
// must end up strictly higher than any cell closer to the outlet along its
// ring distance — if the walk's ascending floor regresses to the cell's own
// raised value instead of staying pinned at the outlet's elevation, the
// walk stalls a few rings out and interior cells are left at their
// unresolved post-flood-raise value instead of climbing away from the outlet.
func TestFillResolvesWidePlateauMonotonically(t *testing.T) {
	const n = 15
	dem := terrane.NewRaster("", float64(n), 0, float64(n), 0, 1, 1, -9999)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			dem.Set(row, col, 100)
		}
	}
	dem.Set(n/2, n/2, 50)
	dem.Set(0, n/2, 49)

	out, result := Breach(dem, Options{MaxDist: 3, MaxCost: 0.1, FlatIncrement: 0.01, Fill: true})
	if result.Unsolved == 0 {
		t.Fatalf("expected the pit to go unsolved by breaching (MaxDist/MaxCost too tight) so fill runs")
	}

	// every cell on the ring at distance d from the outlet column, moving
	// away along a row, must not still sit at the flat level two rings
	// behind it — i.e. the ascending gradient must actually propagate all
	// the way to the plateau's edge, not stall a few rings out.
	prevRingMax := out.Get(1, n/2)
	for row := 2; row < n-1; row++ {
		v := out.Get(row, n/2)
		if v <= prevRingMax {
			t.Fatalf("row %d (%v) did not rise above the previous ring (%v); ascending flat resolution stalled", row, v, prevRingMax)
		}
		prevRingMax = v
	}
}

func TestBreachNoOpOnPitFreeSurface(t *testing.T) {
	dem := terrane.NewRaster("", 5, 0, 5, 0, 1, 1, -9999)
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			dem.Set(row, col, float64(row+col))
		}
	}

	_, result := Breach(dem, Options{MaxDist: 10, MaxCost: 1e12, FlatIncrement: 0.01})

	if result.PitsFound != 0 {
		t.Fatalf("PitsFound = %d on a monotone ramp, want 0", result.PitsFound)
	}
}
