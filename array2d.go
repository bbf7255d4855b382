package terrane

import "golang.org/x/exp/constraints"

// Array2D is a homogeneous 2-D array with a configurable out-of-bounds
// value and a nodata sentinel, used as scratch state throughout the
// breaching engine (backlink, visited, path-length arrays), per spec.md §2.
// It mirrors whitebox_common::structures::Array2D from original_source,
// which is constructed as Array2D::new(rows, columns, out_of_bounds, nodata).
type Array2D[T constraints.Integer | constraints.Float] struct {
	rows, columns int
	data          []T
	outOfBounds   T
	nodata        T
}

// NewArray2D allocates a rows x columns grid initialised to its nodata
// value, with outOfBounds returned for any access outside [0,rows)x[0,cols).
func NewArray2D[T constraints.Integer | constraints.Float](rows, columns int, outOfBounds, nodata T) *Array2D[T] {
	data := make([]T, rows*columns)
	for i := range data {
		data[i] = nodata
	}
	return &Array2D[T]{
		rows:        rows,
		columns:     columns,
		data:        data,
		outOfBounds: outOfBounds,
		nodata:      nodata,
	}
}

func (a *Array2D[T]) Rows() int    { return a.rows }
func (a *Array2D[T]) Columns() int { return a.columns }
func (a *Array2D[T]) Nodata() T    { return a.nodata }

func (a *Array2D[T]) inBounds(row, col int) bool {
	return row >= 0 && row < a.rows && col >= 0 && col < a.columns
}

// Get returns the value at (row, col), or the out-of-bounds sentinel when
// the coordinates fall outside the grid.
func (a *Array2D[T]) Get(row, col int) T {
	if !a.inBounds(row, col) {
		return a.outOfBounds
	}
	return a.data[row*a.columns+col]
}

// Set stores a value at (row, col); out-of-bounds writes are silently
// dropped, matching the original's Array2D semantics where only valid
// cells are ever addressed by the breaching algorithm.
func (a *Array2D[T]) Set(row, col int, v T) {
	if !a.inBounds(row, col) {
		return
	}
	a.data[row*a.columns+col] = v
}

// Reset restores a single cell to its nodata value. The breaching engine
// uses this (via a recorded visited-cell stack) to reset only the touched
// cells after each pit is resolved, keeping resets O(visited) rather than
// O(grid), per spec.md §4.5 step 4.
func (a *Array2D[T]) Reset(row, col int) {
	a.Set(row, col, a.nodata)
}
