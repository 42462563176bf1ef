package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// MetersPerDegree is the flat-earth length of one degree of latitude.
const MetersPerDegree = 111320.0

// MaxLatitude is the largest absolute latitude at which longitude scale is
// considered usable.
const MaxLatitude = 89.0

var (
	ErrPolarLatitude      = errors.New("latitude too close to a pole")
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the coordinate ranges.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Lon)
	}
	return nil
}

// Orb returns the point in [lon, lat] order.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// BoundingBox is an axis-aligned region in degrees.
type BoundingBox struct {
	MinLon float64 `json:"min_lon" mapstructure:"min_lon"`
	MinLat float64 `json:"min_lat" mapstructure:"min_lat"`
	MaxLon float64 `json:"max_lon" mapstructure:"max_lon"`
	MaxLat float64 `json:"max_lat" mapstructure:"max_lat"`
}

// Valid reports whether min < max on both axes.
func (b BoundingBox) Valid() bool {
	return b.MinLon < b.MaxLon && b.MinLat < b.MaxLat
}

// Contains reports whether p lies inside the box, edges included.
func (b BoundingBox) Contains(p Point) bool {
	return p.Lon >= b.MinLon && p.Lon <= b.MaxLon && p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

func (b BoundingBox) Center() Point {
	return Point{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}

// WidthM returns the east-west ground extent at the box's center latitude.
func (b BoundingBox) WidthM() float64 {
	return (b.MaxLon - b.MinLon) * MetersPerDegree * math.Cos(radians(b.Center().Lat))
}

// HeightM returns the north-south ground extent.
func (b BoundingBox) HeightM() float64 {
	return (b.MaxLat - b.MinLat) * MetersPerDegree
}

// Buffer grows the box by m meters on every side.
func (b BoundingBox) Buffer(m float64) (BoundingBox, error) {
	dLon, err := MetersToDegreesLon(m, b.Center().Lat)
	if err != nil {
		return BoundingBox{}, err
	}
	dLat := MetersToDegreesLat(m)
	return BoundingBox{
		MinLon: b.MinLon - dLon,
		MinLat: b.MinLat - dLat,
		MaxLon: b.MaxLon + dLon,
		MaxLat: b.MaxLat + dLat,
	}, nil
}

// String formats the box as WMS 1.3.0 EPSG:4326 expects it: lat/lon axis order.
func (b BoundingBox) String() string {
	return fmt.Sprintf("%.8f,%.8f,%.8f,%.8f", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}

func MetersToDegreesLat(m float64) float64 {
	return m / MetersPerDegree
}

// MetersToDegreesLon converts an east-west distance at the given latitude.
func MetersToDegreesLon(m, lat float64) (float64, error) {
	if math.Abs(lat) >= MaxLatitude {
		return 0, fmt.Errorf("longitude scale at %.4f: %w", lat, ErrPolarLatitude)
	}
	return m / (MetersPerDegree * math.Cos(radians(lat))), nil
}

// NewBoundingBox expands center symmetrically by widthM east-west and heightM
// north-south, using the longitude scale at the center's latitude.
func NewBoundingBox(center Point, widthM, heightM float64) (BoundingBox, error) {
	if err := center.Validate(); err != nil {
		return BoundingBox{}, err
	}
	if widthM <= 0 || heightM <= 0 {
		return BoundingBox{}, fmt.Errorf("bounding box size %.2fx%.2f m: %w", widthM, heightM, ErrDegenerateGeometry)
	}

	halfLon, err := MetersToDegreesLon(widthM/2, center.Lat)
	if err != nil {
		return BoundingBox{}, err
	}
	halfLat := MetersToDegreesLat(heightM / 2)

	return BoundingBox{
		MinLon: center.Lon - halfLon,
		MinLat: center.Lat - halfLat,
		MaxLon: center.Lon + halfLon,
		MaxLat: center.Lat + halfLat,
	}, nil
}

// BoundsOf returns the bounding box of a set of points.
func BoundsOf(points []Point) (BoundingBox, error) {
	if len(points) == 0 {
		return BoundingBox{}, fmt.Errorf("bounds of empty point set: %w", ErrDegenerateGeometry)
	}
	b := BoundingBox{MinLon: points[0].Lon, MinLat: points[0].Lat, MaxLon: points[0].Lon, MaxLat: points[0].Lat}
	for _, p := range points[1:] {
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
	}
	if !b.Valid() {
		return b, fmt.Errorf("bounds of %d points have zero extent: %w", len(points), ErrDegenerateGeometry)
	}
	return b, nil
}

// Centroid returns the vertex mean, ignoring a closing duplicate.
func Centroid(points []Point) Point {
	points = openRing(points)
	if len(points) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range points {
		c.Lat += p.Lat
		c.Lon += p.Lon
	}
	n := float64(len(points))
	return Point{Lat: c.Lat / n, Lon: c.Lon / n}
}

// PolygonAreaM2 applies the shoelace formula in degree space and scales by
// the meters-per-degree product at refLat. Only valid for small polygons.
func PolygonAreaM2(points []Point, refLat float64) float64 {
	points = openRing(points)
	if len(points) < 3 {
		return 0
	}
	var sum float64
	for i := range points {
		j := (i + 1) % len(points)
		sum += points[i].Lon*points[j].Lat - points[j].Lon*points[i].Lat
	}
	areaDeg := math.Abs(sum) / 2
	return areaDeg * MetersPerDegree * MetersPerDegree * math.Cos(radians(refLat))
}

// DistinctCount counts unique vertices of a ring.
func DistinctCount(points []Point) int {
	seen := make(map[Point]struct{}, len(points))
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// CloseRing returns a copy of points with the first point repeated at the end
// if it is not already.
func CloseRing(points []Point) []Point {
	if len(points) == 0 {
		return nil
	}
	ring := make([]Point, len(points), len(points)+1)
	copy(ring, points)
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

// OrbRing converts points to a closed orb ring.
func OrbRing(points []Point) orb.Ring {
	closed := CloseRing(points)
	ring := make(orb.Ring, len(closed))
	for i, p := range closed {
		ring[i] = p.Orb()
	}
	return ring
}

func openRing(points []Point) []Point {
	if len(points) > 1 && points[0] == points[len(points)-1] {
		return points[:len(points)-1]
	}
	return points
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
