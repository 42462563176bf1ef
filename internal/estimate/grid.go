package estimate

import (
	"fmt"
	"iter"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/ironsheep/truck-parking-mcp/internal/geo"
)

// Grid lays a regular lattice of footprint-sized cells over a facility
// boundary.
//
// Columns run east along longitude with the footprint width, rows run north
// along latitude with the footprint length. Cell sizes in degrees are taken
// at the boundary's centroid latitude.
type Grid struct {
	polygon   orb.Polygon
	bbox      geo.BoundingBox
	footprint Footprint
	rotation  *float64

	refLat     float64
	cellLonDeg float64
	cellLatDeg float64
	rows, cols int
}

// NewGrid prepares a grid over boundary. A nil rotation leaves cells
// axis-aligned and unannotated; a non-nil rotation is recorded on every cell
// and, when non-zero, turns each cell clockwise about its own center.
func NewGrid(boundary []geo.Point, fp Footprint, rotation *float64) (*Grid, error) {
	if n := geo.DistinctCount(boundary); n < 3 {
		return nil, fmt.Errorf("boundary with %d distinct points: %w", n, geo.ErrDegenerateGeometry)
	}
	if fp.WidthM <= 0 || fp.LengthM <= 0 {
		return nil, fmt.Errorf("footprint %.2fx%.2f m: %w", fp.WidthM, fp.LengthM, geo.ErrDegenerateGeometry)
	}

	bbox, err := geo.BoundsOf(boundary)
	if err != nil {
		return nil, err
	}
	refLat := geo.Centroid(boundary).Lat
	cellLon, err := geo.MetersToDegreesLon(fp.WidthM, refLat)
	if err != nil {
		return nil, err
	}
	cellLat := geo.MetersToDegreesLat(fp.LengthM)

	return &Grid{
		polygon:    orb.Polygon{geo.OrbRing(boundary)},
		bbox:       bbox,
		footprint:  fp,
		rotation:   rotation,
		refLat:     refLat,
		cellLonDeg: cellLon,
		cellLatDeg: cellLat,
		cols:       max(1, int((bbox.MaxLon-bbox.MinLon)/cellLon)),
		rows:       max(1, int((bbox.MaxLat-bbox.MinLat)/cellLat)),
	}, nil
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// Cells yields every cell whose center lies inside the boundary, row by row
// from the south-west corner. Cells overlapping the edge are kept as long as
// their center is inside.
func (g *Grid) Cells() iter.Seq[geo.SpacePolygon] {
	return func(yield func(geo.SpacePolygon) bool) {
		for row := 0; row < g.rows; row++ {
			for col := 0; col < g.cols; col++ {
				center := geo.Point{
					Lon: g.bbox.MinLon + (float64(col)+0.5)*g.cellLonDeg,
					Lat: g.bbox.MinLat + (float64(row)+0.5)*g.cellLatDeg,
				}
				if !planar.PolygonContains(g.polygon, center.Orb()) {
					continue
				}
				space, err := g.cell(center)
				if err != nil {
					continue
				}
				if !yield(space) {
					return
				}
			}
		}
	}
}

// cell builds the footprint rectangle around center. Rotation happens in
// local meters so that the cell keeps its shape at any latitude.
func (g *Grid) cell(center geo.Point) (geo.SpacePolygon, error) {
	hw, hl := g.footprint.WidthM/2, g.footprint.LengthM/2
	offsets := [4][2]float64{{-hw, -hl}, {hw, -hl}, {hw, hl}, {-hw, hl}}

	var cos, sin float64 = 1, 0
	if g.rotation != nil && *g.rotation != 0 {
		a := -*g.rotation * math.Pi / 180
		cos, sin = math.Cos(a), math.Sin(a)
	}

	lonPerM := g.cellLonDeg / g.footprint.WidthM
	latPerM := g.cellLatDeg / g.footprint.LengthM

	corners := make([]geo.Point, 0, 4)
	for _, o := range offsets {
		east := o[0]*cos - o[1]*sin
		north := o[0]*sin + o[1]*cos
		corners = append(corners, geo.Point{
			Lon: center.Lon + east*lonPerM,
			Lat: center.Lat + north*latPerM,
		})
	}

	space, err := geo.NewSpacePolygon(corners, g.footprint.WidthM, g.footprint.LengthM)
	if err != nil {
		return geo.SpacePolygon{}, err
	}
	space.Estimated = true
	if g.rotation != nil {
		space = space.WithRotation(*g.rotation)
	}
	return space, nil
}
