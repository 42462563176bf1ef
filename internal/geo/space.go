package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// SpacePolygon is a single parking space on the ground.
type SpacePolygon struct {
	Ring      []Point  `json:"ring"`
	WidthM    float64  `json:"width_m"`
	LengthM   float64  `json:"length_m"`
	AreaM2    float64  `json:"area_m2"`
	Rotation  *float64 `json:"rotation_angle,omitempty"`
	Estimated bool     `json:"estimated"`
}

// NewSpacePolygon closes corners into a ring and fills in the area.
func NewSpacePolygon(corners []Point, widthM, lengthM float64) (SpacePolygon, error) {
	if DistinctCount(corners) < 3 {
		return SpacePolygon{}, fmt.Errorf("space with %d distinct corners: %w", DistinctCount(corners), ErrDegenerateGeometry)
	}
	if widthM <= 0 || lengthM <= 0 {
		return SpacePolygon{}, fmt.Errorf("space size %.2fx%.2f m: %w", widthM, lengthM, ErrDegenerateGeometry)
	}
	s := SpacePolygon{
		Ring:    CloseRing(corners),
		WidthM:  widthM,
		LengthM: lengthM,
		AreaM2:  widthM * lengthM,
	}
	return s.Normalize(), nil
}

// Normalize swaps width and length so that WidthM <= LengthM.
func (s SpacePolygon) Normalize() SpacePolygon {
	if s.WidthM > s.LengthM {
		s.WidthM, s.LengthM = s.LengthM, s.WidthM
	}
	return s
}

// WithRotation returns a copy carrying the given rotation in degrees.
func (s SpacePolygon) WithRotation(deg float64) SpacePolygon {
	r := math.Mod(deg, 180)
	if r < 0 {
		r += 180
	}
	s.Rotation = &r
	return s
}

// Center is the mean of the ring's distinct vertices.
func (s SpacePolygon) Center() Point {
	return Centroid(s.Ring)
}

// Polygon returns the ring as an orb polygon in [lon, lat] order.
func (s SpacePolygon) Polygon() orb.Polygon {
	return orb.Polygon{OrbRing(s.Ring)}
}
