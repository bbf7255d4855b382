// Package spatial provides the two bulk-loaded spatial indices the tile
// pipeline queries against a block of LiDAR points, per spec.md §4.3.
package spatial

import (
	"github.com/dhconnelly/rtreego"
)

// pointEpsilon is the half-width rtreego uses for a degenerate, zero-area
// point entry: rtreego.NewRect rejects non-positive lengths, so every
// indexed point is given a vanishingly small footprint instead of true
// zero area.
const pointEpsilon = 1e-9

// FixedRadiusIndex answers "every point within radius r of (x,y)" queries
// over a bulk-loaded set, per spec.md §4.3's fixed-radius contract. It is
// grounded directly on beetlebugorg/s57's ChartIndex (pkg/s57/index.go):
// the same rtreego.NewTree/Insert/SearchIntersect sequence, generalized
// from chart bounding boxes to individual point locations.
type FixedRadiusIndex struct {
	tree *rtreego.Rtree
}

// radiusEntry is one indexed point: its location plus an opaque payload
// (typically a point-cloud row index) carried through the query.
type radiusEntry struct {
	x, y    float64
	payload any
}

// Bounds satisfies rtreego.Spatial with the point's epsilon-sized rectangle.
func (e radiusEntry) Bounds() rtreego.Rect {
	rect, _ := rtreego.NewRect(rtreego.Point{e.x - pointEpsilon, e.y - pointEpsilon}, []float64{2 * pointEpsilon, 2 * pointEpsilon})
	return rect
}

// NewFixedRadiusIndex bulk-loads points into an R-tree with the same
// branching factors (min 25, max 50 children) the teacher's chart index
// uses. xs/ys/payloads must be parallel slices of equal length.
func NewFixedRadiusIndex(xs, ys []float64, payloads []any) *FixedRadiusIndex {
	tree := rtreego.NewTree(2, 25, 50)
	for i := range xs {
		tree.Insert(radiusEntry{x: xs[i], y: ys[i], payload: payloads[i]})
	}
	return &FixedRadiusIndex{tree: tree}
}

// Search returns every payload whose insertion location lies within radius
// of (x,y), measured under squared-Euclidean distance to avoid a square
// root on the hot path, per spec.md §4.3. No de-duplication is performed;
// the caller is responsible for self-dedup if points were inserted more
// than once at the same location.
func (idx *FixedRadiusIndex) Search(x, y, radius float64) []any {
	if idx.tree.Size() == 0 || radius <= 0 {
		return nil
	}
	rSq := radius * radius

	query, err := rtreego.NewRect(rtreego.Point{x - radius, y - radius}, []float64{2 * radius, 2 * radius})
	if err != nil {
		return nil
	}

	hits := idx.tree.SearchIntersect(query)
	out := make([]any, 0, len(hits))
	for _, h := range hits {
		e := h.(radiusEntry)
		dx, dy := e.x-x, e.y-y
		if dx*dx+dy*dy <= rSq {
			out = append(out, e.payload)
		}
	}
	return out
}

// Len reports the number of points held by the index.
func (idx *FixedRadiusIndex) Len() int { return idx.tree.Size() }
