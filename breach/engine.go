package breach

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/samber/lo"

	terrane "github.com/kestrel-gis/terrane"
)

// neighbour offsets, ordered to match original_source's dx/dy tables (NE,
// E, SE, S, SW, W, NW, N, clockwise from the upper-right diagonal).
var (
	dx8 = [8]int{1, 1, 1, 0, -1, -1, -1, 0}
	dy8 = [8]int{-1, 0, 1, 1, 1, 0, -1, -1}
	// backlinkDir8[n] is the direction to walk back from a cell reached by
	// stepping in direction n, i.e. its opposite.
	backlinkDir8 = [8]int8{4, 5, 6, 7, 0, 1, 2, 3}
)

// Options configures a breaching run, per spec.md §4.5.
type Options struct {
	MaxDist       int
	MaxCost       float64
	MinDist       bool
	FlatIncrement float64 // 0 means "derive automatically from the DEM"
	Fill          bool
	Verbose       bool
}

// Result reports what the run did, for logging by the CLI.
type Result struct {
	FlatIncrement float64
	PitsFound     int
	Solved        int
	Unsolved      int
}

type pit struct {
	row, col int
	z        float64
}

// Breach runs the least-cost depression-breaching algorithm against input,
// producing a new raster with every interior pit either breached or (if
// opts.Fill is set) filled. Grounded directly on original_source's
// breach_depressions_least_cost.rs.
func Breach(input *terrane.Raster, opts Options) (*terrane.Raster, Result) {
	resX, resY := input.ResX, input.ResY
	diagRes := math.Sqrt(resX*resX + resY*resY)
	costDist := [8]float64{diagRes, resX, diagRes, resY, diagRes, resX, diagRes, resY}

	flatIncrement := opts.FlatIncrement
	if flatIncrement <= 0 {
		flatIncrement = deriveFlatIncrement(input, diagRes)
	}

	numWorkers := terrane.GetConfig().NumWorkers()
	output, pits := discoverPits(input, flatIncrement, numWorkers)

	sort.SliceStable(pits, func(i, j int) bool { return pits[i].z < pits[j].z })

	result := Result{FlatIncrement: flatIncrement, PitsFound: len(pits)}
	if opts.Verbose && len(pits) == 0 {
		fmt.Println("no depressions found")
	}

	maxLen := int16(opts.MaxDist)
	filterSize := (opts.MaxDist*2 + 1) * (opts.MaxDist*2 + 1)

	backlink := terrane.NewArray2D[int8](output.Rows, output.Columns, -1, -1)
	encountered := terrane.NewArray2D[int8](output.Rows, output.Columns, 0, 0)
	pathLength := terrane.NewArray2D[int16](output.Rows, output.Columns, 0, 0)

	var unsolved []pit
	for _, p := range pits {
		if alreadySolved(output, p.row, p.col, p.z) {
			result.Solved++
			continue
		}
		if breachPit(output, backlink, encountered, pathLength, p.row, p.col, p.z,
			maxLen, filterSize, opts.MaxCost, opts.MinDist, flatIncrement, costDist) {
			result.Solved++
		} else {
			result.Unsolved++
			unsolved = append(unsolved, p)
		}
	}

	if opts.Verbose {
		fmt.Printf("breaching: %d solved, %d unsolved\n", result.Solved, result.Unsolved)
	}

	if opts.Fill && result.Unsolved > 0 {
		if opts.Verbose {
			fmt.Println("filling remaining depressions")
		}
		fillDepressions(output, input, flatIncrement)
	}

	return output, result
}

// deriveFlatIncrement picks a small positive elevation increment from the
// DEM's value range and diagonal cell distance, per spec.md §4.5 and
// original_source's small_num derivation.
func deriveFlatIncrement(input *terrane.Raster, diagRes float64) float64 {
	_, max := input.MinMax()
	elevDigits := len(strconv.Itoa(int(max)))
	elevMultiplier := math.Pow10(9 - elevDigits)
	return 1.0 / elevMultiplier * math.Ceil(diagRes)
}

// discoverPits raises every interior pit cell (one with no neighbour
// strictly lower, ignoring nodata edges) to its lowest neighbour minus the
// flat increment, returning the raised raster and the discovered pit list.
// Parallelised one goroutine per worker, each striding rows by numWorkers,
// mirroring original_source's per-thread row partition.
func discoverPits(input *terrane.Raster, flatIncrement float64, numWorkers int) (*terrane.Raster, []pit) {
	rows, cols := input.Rows, input.Columns
	nodata := input.Nodata
	output := terrane.InitializeUsing("", input)
	output.EPSG = input.EPSG

	type rowResult struct {
		row  int
		data []float64
		pits []pit
	}
	results := make(chan rowResult, rows)

	var wg sync.WaitGroup
	for tid := 0; tid < numWorkers; tid++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			for row := tid; row < rows; row += numWorkers {
				data := append([]float64(nil), input.GetRow(row)...)
				var rowPits []pit
				for col := 0; col < cols; col++ {
					z := input.Get(row, col)
					if z == nodata {
						continue
					}
					isPit := true
					minNeighbour := math.Inf(1)
					for n := 0; n < 8; n++ {
						zn := input.Get(row+dy8[n], col+dx8[n])
						if zn < minNeighbour {
							minNeighbour = zn
						}
						if zn == nodata || zn < z {
							isPit = false
							break
						}
					}
					if isPit {
						data[col] = minNeighbour - flatIncrement
						rowPits = append(rowPits, pit{row: row, col: col, z: z})
					}
				}
				results <- rowResult{row: row, data: data, pits: rowPits}
			}
		}(tid)
	}
	go func() { wg.Wait(); close(results) }()

	perRow := make([][]pit, 0, rows)
	for r := range results {
		output.SetRow(r.row, r.data)
		if len(r.pits) > 0 {
			perRow = append(perRow, r.pits)
		}
	}
	return output, lo.Flatten(perRow)
}

// alreadySolved reports whether a pit cell gained a lower non-nodata
// neighbour (via some other pit's breach channel) since it was recorded.
func alreadySolved(output *terrane.Raster, row, col int, z float64) bool {
	nodata := output.Nodata
	for n := 0; n < 8; n++ {
		zn := output.Get(row+dy8[n], col+dx8[n])
		if zn != nodata && zn < z {
			return true
		}
	}
	return false
}

// breachPit performs the per-pit least-cost accumulation search (spec.md
// §4.5 step 3), mutating output in place along the cheapest channel found,
// and resets all touched scratch cells before returning (step 4).
func breachPit(
	output *terrane.Raster,
	backlink, encountered *terrane.Array2D[int8],
	pathLength *terrane.Array2D[int16],
	row, col int, z float64,
	maxLen int16, filterSize int, maxCost float64, minDist bool, flatIncrement float64,
	costDist [8]float64,
) bool {
	nodata := output.Nodata
	encountered.Set(row, col, 1)
	scanned := [][2]int{{row, col}}
	defer func() {
		for _, c := range scanned {
			backlink.Reset(c[0], c[1])
			encountered.Reset(c[0], c[1])
			pathLength.Reset(c[0], c[1])
		}
	}()

	h := newCostHeap(filterSize)
	h.push(row, col, 0)

	for {
		cell, ok := h.pop()
		if !ok {
			return false
		}
		accum := cell.priority
		if accum > maxCost {
			return false
		}

		length := pathLength.Get(cell.row, cell.column)
		zc := output.Get(cell.row, cell.column)
		cost1 := zc - z + float64(length)*flatIncrement

		for n := 0; n < 8; n++ {
			rn, cn := cell.row+dy8[n], cell.column+dx8[n]
			if encountered.Get(rn, cn) == 1 {
				continue
			}
			scanned = append(scanned, [2]int{rn, cn})
			lengthN := length + 1
			pathLength.Set(rn, cn, lengthN)
			backlink.Set(rn, cn, backlinkDir8[n])
			zn := output.Get(rn, cn)
			zout := z - float64(lengthN)*flatIncrement

			switch {
			case zn > zout && zn != nodata:
				cost2 := zn - zout
				var newCost float64
				if minDist {
					newCost = accum + (cost1+cost2)/2*costDist[n]
				} else {
					newCost = accum + cost2
				}
				encountered.Set(rn, cn, 1)
				if lengthN <= maxLen {
					h.push(rn, cn, newCost)
				}
			case zn <= zout || zn == nodata:
				walkBreachPath(output, backlink, pathLength, rn, cn, z, flatIncrement)
				return true
			}
		}
	}
}

// walkBreachPath clamps every cell along the backlink chain from (row,col)
// back to the pit down to the required monotonically descending profile.
func walkBreachPath(output *terrane.Raster, backlink *terrane.Array2D[int8], pathLength *terrane.Array2D[int16], row, col int, z, flatIncrement float64) {
	for {
		b := backlink.Get(row, col)
		if b <= -1 {
			return
		}
		row += dy8[b]
		col += dx8[b]
		zc := output.Get(row, col)
		length := pathLength.Get(row, col)
		zout := z - float64(length)*flatIncrement
		if zc > zout {
			output.Set(row, col, zout)
		}
	}
}
