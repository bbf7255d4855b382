// Package tin fits a Delaunay triangulation over a 2-D point set and
// rasterises it onto a grid, per spec.md §4.6 step 4 and §4.7. Grounded on
// original_source/lidar_tin_gridding.rs's triangulate/plane-equation/
// point_in_poly sequence.
package tin

import (
	"math"

	"github.com/fogleman/delaunay"
	"gonum.org/v1/gonum/spatial/r3"

	terrane "github.com/kestrel-gis/terrane"
)

// Point2D is a planar coordinate used for triangulation.
type Point2D struct{ X, Y float64 }

// Surface is a Delaunay triangulation: XY gives each vertex's planar
// location, Triangles is the flat, 3·n_triangles-long, counter-clockwise
// index list spec.md §4.7's adapter contract describes.
type Surface struct {
	XY        []Point2D
	Triangles []int
}

// Triangulate fits a Delaunay triangulation over points. This is the
// adapter §4.7 calls out as "not reimplemented" — delaunay.Triangulate does
// the geometric work; this just translates its result type.
func Triangulate(points []Point2D) (*Surface, error) {
	pts := make([]delaunay.Point, len(points))
	for i, p := range points {
		pts[i] = delaunay.Point{X: p.X, Y: p.Y}
	}
	result, err := delaunay.Triangulate(pts)
	if err != nil {
		return nil, err
	}
	return &Surface{XY: points, Triangles: result.Triangles}, nil
}

// NumTriangles reports how many triangles the triangulation produced.
func (s *Surface) NumTriangles() int { return len(s.Triangles) / 3 }

// Vertices returns the point indices of triangle t.
func (s *Surface) Vertices(t int) (p1, p2, p3 int) {
	i := t * 3
	return s.Triangles[i], s.Triangles[i+1], s.Triangles[i+2]
}

// plane is the equation a·x + b·y + c·z + d = 0 fitted through three
// (x, y, value) vertices, solved for z.
type plane struct{ a, b, c, d float64 }

// fitPlane mirrors the original's Vector3::cross-based construction: the
// two edge vectors from p1 cross to give the plane normal, and d follows
// from substituting p1 back into the plane equation.
func fitPlane(p1, p2, p3 Point2D, v1, v2, v3 float64) plane {
	a := r3.Vec{X: p1.X, Y: p1.Y, Z: v1}
	b := r3.Vec{X: p2.X, Y: p2.Y, Z: v2}
	c := r3.Vec{X: p3.X, Y: p3.Y, Z: v3}
	norm := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	d := -(p1.X*norm.X + p1.Y*norm.Y + norm.Z*v1)
	return plane{a: norm.X, b: norm.Y, c: norm.Z, d: d}
}

func (pl plane) valueAt(x, y float64) float64 {
	return -(pl.a*x + pl.b*y + pl.d) / pl.c
}

// maxEdgeLengthSquared is the triangle's longest edge length squared,
// measured in (x, y, value) space, mirroring the original's
// max_distance_squared used to skip triangles that bridge void areas.
func maxEdgeLengthSquared(p1, p2, p3 Point2D, v1, v2, v3 float64) float64 {
	edge := func(pa, pb Point2D, va, vb float64) float64 {
		dx, dy, dv := pa.X-pb.X, pa.Y-pb.Y, va-vb
		return dx*dx + dy*dy + dv*dv
	}
	m := edge(p1, p2, v1, v2)
	if d := edge(p1, p3, v1, v3); d > m {
		m = d
	}
	if d := edge(p2, p3, v2, v3); d > m {
		m = d
	}
	return m
}

// pointInTriangle is the closed-boundary same-side test original_source
// calls point_in_poly.
func pointInTriangle(x, y float64, p1, p2, p3 Point2D) bool {
	sign := func(ax, ay, bx, by, cx, cy float64) float64 {
		return (ax-cx)*(by-cy) - (bx-cx)*(ay-cy)
	}
	d1 := sign(x, y, p1.X, p1.Y, p2.X, p2.Y)
	d2 := sign(x, y, p2.X, p2.Y, p3.X, p3.Y)
	d3 := sign(x, y, p3.X, p3.Y, p1.X, p1.Y)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// triangleCellBounds returns the grid row/column range spanning a
// triangle's bounding box.
func triangleCellBounds(output *terrane.Raster, p1, p2, p3 Point2D) (topRow, bottomRow, leftCol, rightCol int) {
	top := math.Max(p1.Y, math.Max(p2.Y, p3.Y))
	bottom := math.Min(p1.Y, math.Min(p2.Y, p3.Y))
	left := math.Min(p1.X, math.Min(p2.X, p3.X))
	right := math.Max(p1.X, math.Max(p2.X, p3.X))
	return output.GetRowFromY(top), output.GetRowFromY(bottom), output.GetColumnFromX(left), output.GetColumnFromX(right)
}

// Rasterize evaluates the fitted plane of every triangle in surface over the
// grid cells whose centre falls inside it, writing the interpolated value
// into output. Triangles whose longest edge exceeds maxEdgeLength are
// skipped entirely, leaving their footprint at output's nodata value. Pass
// maxEdgeLength <= 0 for no limit.
func Rasterize(output *terrane.Raster, surface *Surface, values []float64, maxEdgeLength float64) {
	maxEdgeSq := math.Inf(1)
	if maxEdgeLength > 0 {
		maxEdgeSq = maxEdgeLength * maxEdgeLength
	}

	for t := 0; t < surface.NumTriangles(); t++ {
		i1, i2, i3 := surface.Vertices(t)
		p1, p2, p3 := surface.XY[i1], surface.XY[i2], surface.XY[i3]
		v1, v2, v3 := values[i1], values[i2], values[i3]
		if maxEdgeLengthSquared(p1, p2, p3, v1, v2, v3) > maxEdgeSq {
			continue
		}

		pl := fitPlane(p1, p2, p3, v1, v2, v3)
		topRow, bottomRow, leftCol, rightCol := triangleCellBounds(output, p1, p2, p3)
		for row := topRow; row <= bottomRow; row++ {
			for col := leftCol; col <= rightCol; col++ {
				x, y := output.GetXFromColumn(col), output.GetYFromRow(row)
				if pointInTriangle(x, y, p1, p2, p3) {
					output.Set(row, col, pl.valueAt(x, y))
				}
			}
		}
	}
}

// RasterizeRGB fits three independent planes (one per colour channel) and
// packs each cell's evaluated red/green/blue into a 32-bit RGBA word with
// alpha fixed at 255, written as output's underlying float64 cell value —
// the original reuses its single numeric raster channel for packed colour
// the same way.
func RasterizeRGB(output *terrane.Raster, surface *Surface, red, green, blue []float64, maxEdgeLength float64) {
	maxEdgeSq := math.Inf(1)
	if maxEdgeLength > 0 {
		maxEdgeSq = maxEdgeLength * maxEdgeLength
	}

	for t := 0; t < surface.NumTriangles(); t++ {
		i1, i2, i3 := surface.Vertices(t)
		p1, p2, p3 := surface.XY[i1], surface.XY[i2], surface.XY[i3]
		if maxEdgeLengthSquared(p1, p2, p3, red[i1], red[i2], red[i3]) > maxEdgeSq {
			continue
		}

		rPlane := fitPlane(p1, p2, p3, red[i1], red[i2], red[i3])
		gPlane := fitPlane(p1, p2, p3, green[i1], green[i2], green[i3])
		bPlane := fitPlane(p1, p2, p3, blue[i1], blue[i2], blue[i3])

		topRow, bottomRow, leftCol, rightCol := triangleCellBounds(output, p1, p2, p3)
		for row := topRow; row <= bottomRow; row++ {
			for col := leftCol; col <= rightCol; col++ {
				x, y := output.GetXFromColumn(col), output.GetYFromRow(row)
				if !pointInTriangle(x, y, p1, p2, p3) {
					continue
				}
				packed := (uint32(255) << 24) |
					(clampByte(bPlane.valueAt(x, y)) << 16) |
					(clampByte(gPlane.valueAt(x, y)) << 8) |
					clampByte(rPlane.valueAt(x, y))
				output.Set(row, col, float64(packed))
			}
		}
	}
}

func clampByte(v float64) uint32 {
	r := math.Round(v)
	switch {
	case r < 0:
		return 0
	case r > 255:
		return 255
	default:
		return uint32(r)
	}
}
