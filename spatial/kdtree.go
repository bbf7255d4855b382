package spatial

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// geoPoint is a 2-D kdtree.Comparable carrying an opaque payload, letting
// the tree answer queries with caller-chosen point identities (a point-
// cloud row index, typically) rather than bare coordinates.
type geoPoint struct {
	x, y    float64
	payload any
}

func (p geoPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(geoPoint)
	if d == 0 {
		return p.x - q.x
	}
	return p.y - q.y
}

func (geoPoint) Dims() int { return 2 }

func (p geoPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(geoPoint)
	dx, dy := p.x-q.x, p.y-q.y
	return dx*dx + dy*dy
}

// geoPoints implements kdtree.Interface over a slice of geoPoint, mirroring
// the role of the built-in kdtree.Points type but carrying payloads.
type geoPoints []geoPoint

func (p geoPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p geoPoints) Len() int                      { return len(p) }
func (p geoPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot partitions p across dimension d and reports the split index, the
// contract kdtree.Interface requires for recursive tree construction.
func (p geoPoints) Pivot(d kdtree.Dim) int {
	sort.Slice(p, func(i, j int) bool {
		if d == 0 {
			return p[i].x < p[j].x
		}
		return p[i].y < p[j].y
	})
	return len(p) / 2
}

// KDTree answers within-radius and k-nearest queries over a bulk-loaded 2-D
// point set, per spec.md §4.3. Grounded on gonum.org/v1/gonum's presence in
// the pack (banshee-data-velocity.report's go.mod); no example repo
// exercises spatial/kdtree directly, so its construction here follows the
// package's documented Comparable/Interface contract rather than a
// retrieved call site.
type KDTree struct {
	tree *kdtree.Tree
}

// NewKDTree bulk-loads points into a balanced KD-tree.
func NewKDTree(xs, ys []float64, payloads []any) *KDTree {
	pts := make(geoPoints, len(xs))
	for i := range xs {
		pts[i] = geoPoint{x: xs[i], y: ys[i], payload: payloads[i]}
	}
	return &KDTree{tree: kdtree.New(pts, false)}
}

// sortedHits extracts a Keeper's heap as payloads ordered by ascending
// distance, satisfying spec.md §4.3's "stable ordering by distance"
// requirement (the heap itself is only partially ordered).
func sortedHits(heap []kdtree.ComparableDist) []any {
	sort.Slice(heap, func(i, j int) bool { return heap[i].Dist < heap[j].Dist })
	out := make([]any, len(heap))
	for i, h := range heap {
		out[i] = h.Comparable.(geoPoint).payload
	}
	return out
}

// Within returns every indexed payload within squared distance rSq of
// point, ordered nearest-first.
func (t *KDTree) Within(x, y, rSq float64) []any {
	keeper := kdtree.NewDistKeeper(rSq)
	t.tree.NearestSet(keeper, geoPoint{x: x, y: y})
	return sortedHits(keeper.Heap)
}

// Nearest returns the k closest indexed payloads to point, ordered
// nearest-first.
func (t *KDTree) Nearest(x, y float64, k int) []any {
	keeper := kdtree.NewNKeeper(k)
	t.tree.NearestSet(keeper, geoPoint{x: x, y: y})
	return sortedHits(keeper.Heap)
}

// Len reports the number of points held by the tree.
func (t *KDTree) Len() int { return t.tree.Count }
