package terrane

import (
	"math"

	"github.com/soniakeys/unit"
)

// BBox is an axis-aligned geographic extent, shared by the raster store, the
// tile planner and the spatial indices (spec.md §4.2/§5).
type BBox struct {
	North, South, East, West float64
}

// Width and Height report the extent's size in the same units as its bounds.
func (b BBox) Width() float64  { return b.East - b.West }
func (b BBox) Height() float64 { return b.North - b.South }

// Contains reports whether (x, y) falls within the extent, inclusive of its
// edges.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.West && x <= b.East && y >= b.South && y <= b.North
}

// Intersects reports whether two extents overlap.
func (b BBox) Intersects(o BBox) bool {
	return b.West <= o.East && b.East >= o.West && b.South <= o.North && b.North >= o.South
}

// Expand grows the extent by margin on all four sides, used to build the
// halo region around a tile so that a triangulation sees points from
// neighbouring tiles (spec.md §5.3).
func (b BBox) Expand(margin float64) BBox {
	return BBox{
		North: b.North + margin,
		South: b.South - margin,
		East:  b.East + margin,
		West:  b.West - margin,
	}
}

// Tile is one unit of work handed to the tile pipeline's worker pool: a
// target raster sub-extent plus the halo-expanded extent used for its point
// read, per spec.md §5.
type Tile struct {
	Index      int
	Bounds     BBox
	HaloBounds BBox
	Rows       int
	Columns    int
}

// PlanTiles divides a bounding box into a grid of tiles no larger than
// tileRows x tileCols cells at the given resolution, each expanded by halo
// map units. Tiles are numbered row-major.
func PlanTiles(extent BBox, resX, resY float64, tileRows, tileCols int, halo float64) []Tile {
	totalRows := int(math.Ceil(extent.Height() / resY))
	totalCols := int(math.Ceil(extent.Width() / resX))

	var tiles []Tile
	idx := 0
	for rowStart := 0; rowStart < totalRows; rowStart += tileRows {
		rows := tileRows
		if rowStart+rows > totalRows {
			rows = totalRows - rowStart
		}
		for colStart := 0; colStart < totalCols; colStart += tileCols {
			cols := tileCols
			if colStart+cols > totalCols {
				cols = totalCols - colStart
			}

			north := extent.North - float64(rowStart)*resY
			south := north - float64(rows)*resY
			west := extent.West + float64(colStart)*resX
			east := west + float64(cols)*resX

			bounds := BBox{North: north, South: south, East: east, West: west}
			tiles = append(tiles, Tile{
				Index:      idx,
				Bounds:     bounds,
				HaloBounds: bounds.Expand(halo),
				Rows:       rows,
				Columns:    cols,
			})
			idx++
		}
	}
	return tiles
}

// MetresPerDegree returns a rough metric scale hint for a geographic (EPSG
// 4326-like) extent centred at latitude centreLat, using soniakeys/unit's
// angle handling to convert the latitude to radians for the cosine term.
// This is used only to pick a sensible default search radius/halo when a
// point cloud or DEM carries no projected CRS, never for exact reprojection.
func MetresPerDegree(centreLat float64) (perDegreeLat, perDegreeLon float64) {
	lat := unit.AngleFromDeg(centreLat)
	const metresPerDegreeLat = 111_320.0
	perDegreeLat = metresPerDegreeLat
	perDegreeLon = metresPerDegreeLat * math.Cos(lat.Rad())
	return perDegreeLat, perDegreeLon
}
