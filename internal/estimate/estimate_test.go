package estimate

import (
	"errors"
	"math"
	"testing"

	"github.com/matryer/is"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/ironsheep/truck-parking-mcp/internal/geo"
)

// rect returns the corners of a w x h meter rectangle around center.
func rect(t *testing.T, center geo.Point, w, h float64) []geo.Point {
	t.Helper()
	b, err := geo.NewBoundingBox(center, w, h)
	if err != nil {
		t.Fatalf("failed to build rectangle: %v", err)
	}
	return []geo.Point{
		{Lat: b.MinLat, Lon: b.MinLon},
		{Lat: b.MinLat, Lon: b.MaxLon},
		{Lat: b.MaxLat, Lon: b.MaxLon},
		{Lat: b.MaxLat, Lon: b.MinLon},
	}
}

var truck = Footprint{WidthM: 4, LengthM: 15}

func TestEstimateIsDeterministic(t *testing.T) {
	is := is.New(t)

	boundary := rect(t, geo.Point{Lat: 51.9, Lon: 4.05}, 100, 50)
	e := New(DefaultConfig())

	first, err := e.Estimate(boundary, 20, truck, nil)
	is.NoErr(err)
	is.Equal(len(first), 20)

	for i := 0; i < 3; i++ {
		again, err := e.Estimate(boundary, 20, truck, nil)
		is.NoErr(err)
		is.Equal(again, first)
	}
}

func TestEstimateSpaceAttributes(t *testing.T) {
	is := is.New(t)

	boundary := rect(t, geo.Point{Lat: 51.9, Lon: 4.05}, 100, 50)
	spaces, err := New(DefaultConfig()).Estimate(boundary, 5, truck, nil)
	is.NoErr(err)

	for _, s := range spaces {
		is.True(s.Estimated)
		is.Equal(s.Rotation, nil)
		is.Equal(s.WidthM, 4.0)
		is.Equal(s.LengthM, 15.0)
		is.Equal(s.AreaM2, 60.0)
		is.Equal(len(s.Ring), 5)
		is.Equal(s.Ring[0], s.Ring[4]) // closed ring
	}
}

func TestEstimateCapsAtMaxCells(t *testing.T) {
	is := is.New(t)

	boundary := rect(t, geo.Point{Lat: 51.9, Lon: 4.05}, 1000, 1000)
	e := New(DefaultConfig())

	spaces, err := e.Estimate(boundary, 0, truck, nil)
	is.NoErr(err)
	is.Equal(len(spaces), 200)

	spaces, err = e.Estimate(boundary, 5000, truck, nil)
	is.NoErr(err)
	is.Equal(len(spaces), 200)
}

func TestEstimateZeroCapacityFillsGrid(t *testing.T) {
	is := is.New(t)

	// 10 columns by 2 rows, all centers inside
	boundary := rect(t, geo.Point{Lat: 51.9, Lon: 4.05}, 41, 31)
	spaces, err := New(DefaultConfig()).Estimate(boundary, 0, truck, nil)
	is.NoErr(err)
	is.Equal(len(spaces), 20)
}

func TestEstimateCentersInsideBoundary(t *testing.T) {
	is := is.New(t)

	// L-shaped facility, about 200m x 200m with the north-east quarter cut out
	boundary := []geo.Point{
		{Lat: 51.9000, Lon: 4.0000},
		{Lat: 51.9000, Lon: 4.0029},
		{Lat: 51.9009, Lon: 4.0029},
		{Lat: 51.9009, Lon: 4.0014},
		{Lat: 51.9018, Lon: 4.0014},
		{Lat: 51.9018, Lon: 4.0000},
	}
	poly := orb.Polygon{geo.OrbRing(boundary)}

	g, err := NewGrid(boundary, truck, nil)
	is.NoErr(err)

	n := 0
	for s := range g.Cells() {
		is.True(planar.PolygonContains(poly, s.Center().Orb()))
		n++
	}
	is.True(n > 0)
	is.True(n < g.Rows()*g.Cols()) // the cut-out quarter is skipped
}

func TestCellsStopsEarly(t *testing.T) {
	is := is.New(t)

	g, err := NewGrid(rect(t, geo.Point{Lat: 51.9, Lon: 4.05}, 200, 200), truck, nil)
	is.NoErr(err)

	n := 0
	for range g.Cells() {
		n++
		if n == 3 {
			break
		}
	}
	is.Equal(n, 3)
}

func TestEstimateRotation(t *testing.T) {
	is := is.New(t)

	boundary := rect(t, geo.Point{Lat: 51.9, Lon: 4.05}, 200, 200)
	rot := 90.0
	spaces, err := New(DefaultConfig()).Estimate(boundary, 1, truck, &rot)
	is.NoErr(err)
	is.Equal(len(spaces), 1)

	s := spaces[0]
	is.True(s.Rotation != nil)
	is.Equal(*s.Rotation, 90.0)

	// turned a quarter, the long side runs east-west
	b, err := geo.BoundsOf(s.Ring)
	is.NoErr(err)
	is.True(math.Abs(b.WidthM()-15) < 0.1)
	is.True(math.Abs(b.HeightM()-4) < 0.1)
}

func TestEstimateZeroRotationIsRecordedButNotApplied(t *testing.T) {
	is := is.New(t)

	boundary := rect(t, geo.Point{Lat: 51.9, Lon: 4.05}, 100, 50)
	rot := 0.0
	e := New(DefaultConfig())

	rotated, err := e.Estimate(boundary, 3, truck, &rot)
	is.NoErr(err)
	plain, err := e.Estimate(boundary, 3, truck, nil)
	is.NoErr(err)

	for i := range rotated {
		is.Equal(rotated[i].Ring, plain[i].Ring)
		is.Equal(*rotated[i].Rotation, 0.0)
	}
}

func TestEstimateRejectsDegenerateBoundary(t *testing.T) {
	tests := []struct {
		name     string
		boundary []geo.Point
	}{
		{"empty", nil},
		{"two points", []geo.Point{{Lat: 51.9, Lon: 4.0}, {Lat: 51.91, Lon: 4.01}}},
		{"repeated points", []geo.Point{{Lat: 51.9, Lon: 4.0}, {Lat: 51.9, Lon: 4.0}, {Lat: 51.91, Lon: 4.01}, {Lat: 51.9, Lon: 4.0}}},
		{"collinear", []geo.Point{{Lat: 51.9, Lon: 4.0}, {Lat: 51.9, Lon: 4.01}, {Lat: 51.9, Lon: 4.02}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			_, err := New(DefaultConfig()).Estimate(tt.boundary, 10, truck, nil)
			is.True(errors.Is(err, geo.ErrDegenerateGeometry))
		})
	}
}

func TestEstimateRejectsPolarBoundary(t *testing.T) {
	is := is.New(t)

	boundary := []geo.Point{{Lat: 89.5, Lon: 0}, {Lat: 89.5, Lon: 1}, {Lat: 89.6, Lon: 1}}
	_, err := New(DefaultConfig()).Estimate(boundary, 10, truck, nil)
	is.True(errors.Is(err, geo.ErrPolarLatitude))
}

func TestCapacity(t *testing.T) {
	e := New(DefaultConfig())

	tests := []struct {
		name                       string
		areaCap, total, areaCount  int
		areaM2                     float64
		want                       int
	}{
		{"area capacity wins", 30, 100, 4, 6000, 30},
		{"facility share", 0, 100, 4, 6000, 25},
		{"from area", 0, 0, 1, 6000, 50},
		{"capped", 0, 0, 1, 1e6, 200},
		{"capped area capacity", 500, 0, 1, 0, 200},
		{"nothing known", 0, 0, 0, 0, 0},
		{"negative", -5, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			is.Equal(e.Capacity(tt.areaCap, tt.total, tt.areaCount, tt.areaM2, truck), tt.want)
		})
	}
}

func TestFootprint(t *testing.T) {
	is := is.New(t)

	e := New(DefaultConfig())
	is.Equal(e.Footprint(KindVan), Footprint{WidthM: 2.5, LengthM: 5})
	is.Equal(e.Footprint(KindTruck), truck)
	is.Equal(e.Footprint(""), truck)
}

func TestConfigValidate(t *testing.T) {
	is := is.New(t)

	is.NoErr(DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.MaxCells = 0
	is.True(cfg.Validate() != nil)

	cfg = DefaultConfig()
	cfg.Efficiency = 1.5
	is.True(cfg.Validate() != nil)

	cfg = DefaultConfig()
	cfg.Van.LengthM = 0
	is.True(cfg.Validate() != nil)
}
