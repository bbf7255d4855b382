// Package breach implements the least-cost depression-breaching and
// priority-flood depression-filling engine of spec.md §4.5, grounded on
// original_source/whitebox-tools-app's
// hydro_analysis/breach_depressions_least_cost.rs.
package breach

import "container/heap"

// gridCell is one entry in the least-cost search's min-heap: a grid
// location ordered by accumulated breach cost, mirroring the original's
// GridCell/BinaryHeap<GridCell> (a max-heap inverted via reversed Ord to
// act as a min-heap; Go's container/heap is naturally a min-heap given
// Less, so no inversion is needed here).
type gridCell struct {
	row, column int
	priority    float64
	seq         int // insertion order, for the tie-break spec.md §4.5 requires
}

type gridCellHeap []gridCell

func (h gridCellHeap) Len() int { return len(h) }
func (h gridCellHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h gridCellHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *gridCellHeap) Push(x any)        { *h = append(*h, x.(gridCell)) }
func (h *gridCellHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// costHeap wraps gridCellHeap with the container/heap push/pop calls and a
// monotonically increasing sequence counter for stable tie-breaking.
type costHeap struct {
	h   gridCellHeap
	seq int
}

func newCostHeap(capacity int) *costHeap {
	h := make(gridCellHeap, 0, capacity)
	heap.Init(&h)
	return &costHeap{h: h}
}

func (c *costHeap) push(row, column int, priority float64) {
	c.seq++
	heap.Push(&c.h, gridCell{row: row, column: column, priority: priority, seq: c.seq})
}

func (c *costHeap) pop() (gridCell, bool) {
	if len(c.h) == 0 {
		return gridCell{}, false
	}
	return heap.Pop(&c.h).(gridCell), true
}

func (c *costHeap) len() int { return len(c.h) }

// outletCell carries the cell's just-raised elevation, the fixed elevation
// of the outlet the whole walk originated from (constant across every ring,
// never the cell's own raised value), and the original DEM elevation used
// to tie-break the flat resolution walk — mirroring the original's
// GridCell2 (row, column, z, priority), where z is propagated unchanged
// from the outlet on every recursive push.
type outletCell struct {
	row, column int
	z           float64 // elevation this cell was just raised to
	floor       float64 // the originating outlet's fixed elevation, constant for the whole walk
	priority    float64 // original DEM elevation, used as the walk's ordering key
	seq         int
}

type outletHeap []outletCell

func (h outletHeap) Len() int { return len(h) }
func (h outletHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h outletHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *outletHeap) Push(x any)   { *h = append(*h, x.(outletCell)) }
func (h *outletHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

type outletPQ struct {
	h   outletHeap
	seq int
}

func newOutletPQ() *outletPQ {
	h := make(outletHeap, 0)
	heap.Init(&h)
	return &outletPQ{h: h}
}

func (p *outletPQ) push(row, column int, z, floor, priority float64) {
	p.seq++
	heap.Push(&p.h, outletCell{row: row, column: column, z: z, floor: floor, priority: priority, seq: p.seq})
}

func (p *outletPQ) pop() (outletCell, bool) {
	if len(p.h) == 0 {
		return outletCell{}, false
	}
	return heap.Pop(&p.h).(outletCell), true
}

func (p *outletPQ) len() int { return len(p.h) }
