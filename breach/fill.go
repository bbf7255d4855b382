package breach

import (
	"math"
	"sort"

	terrane "github.com/kestrel-gis/terrane"
)

// fillDepressions runs the priority-flood fill pass (spec.md §4.5 step 5)
// over whatever pits survived breaching: each remaining pit's basin is
// flooded outward in elevation order until an outlet (a lower, non-nodata
// neighbour) is found, the whole basin is raised to the outlet's level, and
// any resulting flat is then resolved by a second priority walk ordered by
// the *original* (pre-fill) DEM elevation, imposing a strictly ascending
// z+flatIncrement profile away from each outlet. Grounded directly on
// original_source's breach_depressions_least_cost.rs fill phase.
func fillDepressions(output, original *terrane.Raster, flatIncrement float64) {
	rows, cols := output.Rows, output.Columns
	nodata := output.Nodata

	var pits []pit
	for row := 1; row < rows-1; row++ {
		for col := 1; col < cols-1; col++ {
			z := output.Get(row, col)
			if z == nodata {
				continue
			}
			isPit := true
			for n := 0; n < 8; n++ {
				zn := output.Get(row+dy8[n], col+dx8[n])
				if zn == nodata || zn < z {
					isPit = false
					break
				}
			}
			if isPit {
				pits = append(pits, pit{row: row, col: col, z: z})
			}
		}
	}
	sort.SliceStable(pits, func(i, j int) bool { return pits[i].z < pits[j].z })

	visited := terrane.NewArray2D[int8](rows, cols, 0, 0)
	flats := terrane.NewArray2D[int8](rows, cols, 0, 0)
	var possibleOutlets [][2]int

	for _, p := range pits {
		if flats.Get(p.row, p.col) == 1 {
			continue
		}
		possibleOutlets = append(possibleOutlets, floodBasin(output, visited, flats, p.row, p.col)...)
	}

	if flatIncrement > 0 {
		resolveFlats(output, original, flats, possibleOutlets, flatIncrement)
	}
}

// floodBasin expands outward in ascending elevation order from a pit until
// it finds the basin's outlet(s), raises every interior cell to the outlet
// level, and returns the outlet cell locations for the later flat pass.
func floodBasin(output *terrane.Raster, visited, flats *terrane.Array2D[int8], pitRow, pitCol int) [][2]int {
	nodata := output.Nodata
	h := newCostHeap(64)
	h.push(pitRow, pitCol, output.Get(pitRow, pitCol))
	visited.Set(pitRow, pitCol, 1)

	outletFound := false
	outletZ := math.Inf(1)
	var queue [][2]int
	var outlets [][2]int

	for {
		cell, ok := h.pop()
		if !ok {
			break
		}
		z := cell.priority
		if outletFound && z > outletZ {
			break
		}

		if !outletFound {
			for n := 0; n < 8; n++ {
				rn, cn := cell.row+dy8[n], cell.column+dx8[n]
				if visited.Get(rn, cn) != 0 {
					continue
				}
				zn := output.Get(rn, cn)
				if zn == nodata {
					continue
				}
				if zn >= z {
					h.push(rn, cn, zn)
					visited.Set(rn, cn, 1)
				} else {
					outletFound = true
					outletZ = z
					queue = append(queue, [2]int{cell.row, cell.column})
					outlets = append(outlets, [2]int{cell.row, cell.column})
				}
			}
			continue
		}

		if z != outletZ {
			continue
		}
		isOutlet := false
		for n := 0; n < 8; n++ {
			rn, cn := cell.row+dy8[n], cell.column+dx8[n]
			if visited.Get(rn, cn) != 0 {
				continue
			}
			zn := output.Get(rn, cn)
			switch {
			case zn == nodata:
			case zn < z:
				isOutlet = true
			case zn == outletZ:
				h.push(rn, cn, zn)
				visited.Set(rn, cn, 1)
			}
		}
		if isOutlet {
			queue = append(queue, [2]int{cell.row, cell.column})
			outlets = append(outlets, [2]int{cell.row, cell.column})
		}
	}

	if !outletFound {
		return nil
	}

	for len(queue) > 0 {
		cell := queue[0]
		queue = queue[1:]
		for n := 0; n < 8; n++ {
			rn, cn := cell[0]+dy8[n], cell[1]+dx8[n]
			if visited.Get(rn, cn) != 1 {
				continue
			}
			visited.Set(rn, cn, 0)
			queue = append(queue, [2]int{rn, cn})
			z := output.Get(rn, cn)
			if z <= outletZ {
				output.Set(rn, cn, outletZ)
				flats.Set(rn, cn, 1)
			}
		}
	}
	return outlets
}

// resolveFlats imposes a strictly ascending elevation profile (in steps of
// flatIncrement) outward from every confirmed outlet across the flats the
// fill pass produced, so downstream flow-direction tools never see a
// perfectly flat cell. Ordered by the pre-fill DEM elevation at each step,
// per the Open Question decision recorded in DESIGN.md.
func resolveFlats(output, original *terrane.Raster, flats *terrane.Array2D[int8], possibleOutlets [][2]int, flatIncrement float64) {
	nodata := output.Nodata

	var confirmed [][2]int
	for i := len(possibleOutlets) - 1; i >= 0; i-- {
		cell := possibleOutlets[i]
		z := output.Get(cell[0], cell[1])
		hasLower := false
		for n := 0; n < 8; n++ {
			zn := output.Get(cell[0]+dy8[n], cell[1]+dx8[n])
			if zn != nodata && zn < z {
				hasLower = true
				break
			}
		}
		if hasLower {
			confirmed = append(confirmed, cell)
		}
	}

	outletQueue := newCostHeap(len(confirmed))
	for _, c := range confirmed {
		outletQueue.push(c[0], c[1], output.Get(c[0], c[1]))
	}

	for outletQueue.len() > 0 {
		first, ok := outletQueue.pop()
		if !ok {
			break
		}
		if flats.Get(first.row, first.column) == 3 {
			continue
		}
		z := first.priority
		flats.Set(first.row, first.column, 3)
		group := [][2]int{{first.row, first.column}}

		for outletQueue.len() > 0 {
			top := outletQueue.h[0]
			if top.priority != z {
				break
			}
			next, _ := outletQueue.pop()
			if flats.Get(next.row, next.column) == 3 {
				continue
			}
			flats.Set(next.row, next.column, 3)
			group = append(group, [2]int{next.row, next.column})
		}

		// walk outward from this outlet group imposing z+flatIncrement
		// ascending; floor stays pinned at the outlet's own elevation zo for
		// every ring of the walk (mirrors the original's GridCell2.z, which
		// is propagated unchanged on every recursive push — never the
		// cell's own just-raised value).
		walk := newOutletPQ()
		for _, o := range group {
			zo := output.Get(o[0], o[1])
			for n := 0; n < 8; n++ {
				rn, cn := o[0]+dy8[n], o[1]+dx8[n]
				if flats.Get(rn, cn) == 3 {
					continue
				}
				zn := output.Get(rn, cn)
				if zn == zo && zn != nodata {
					walk.push(rn, cn, zo+flatIncrement, zo, original.Get(rn, cn))
					output.Set(rn, cn, zo+flatIncrement)
					flats.Set(rn, cn, 3)
				}
			}
		}
		for {
			cell, ok := walk.pop()
			if !ok {
				break
			}
			z := output.Get(cell.row, cell.column)
			for n := 0; n < 8; n++ {
				rn, cn := cell.row+dy8[n], cell.column+dx8[n]
				if flats.Get(rn, cn) == 3 {
					continue
				}
				zn := output.Get(rn, cn)
				if zn != nodata && zn < z+flatIncrement && zn >= cell.floor {
					walk.push(rn, cn, z+flatIncrement, cell.floor, original.Get(rn, cn))
					output.Set(rn, cn, z+flatIncrement)
					flats.Set(rn, cn, 3)
				}
			}
		}
	}
}
