package geo

import (
	"fmt"
	"math"
)

// Projector maps pixel coordinates of a tile to WGS84 and back.
type Projector struct {
	BBox       BoundingBox
	Width      int
	Height     int
	Resolution float64 // meters per pixel
}

// NewProjector creates a projector for a width x height raster covering
// bbox. A zero resolution is derived from the box's ground width.
func NewProjector(bbox BoundingBox, width, height int, resolution float64) (Projector, error) {
	if !bbox.Valid() {
		return Projector{}, fmt.Errorf("projector bbox %+v: %w", bbox, ErrDegenerateGeometry)
	}
	if width <= 0 || height <= 0 {
		return Projector{}, fmt.Errorf("projector raster %dx%d: %w", width, height, ErrDegenerateGeometry)
	}
	if resolution <= 0 {
		resolution = bbox.WidthM() / float64(width)
	}
	return Projector{BBox: bbox, Width: width, Height: height, Resolution: resolution}, nil
}

// PixelToGeo maps a pixel position to a coordinate. Row 0 is MaxLat.
func (p Projector) PixelToGeo(x, y float64) Point {
	lonSpan := p.BBox.MaxLon - p.BBox.MinLon
	latSpan := p.BBox.MaxLat - p.BBox.MinLat
	return Point{
		Lon: p.BBox.MinLon + x/float64(p.Width)*lonSpan,
		Lat: p.BBox.MaxLat - y/float64(p.Height)*latSpan,
	}
}

// GeoToPixel is the inverse of PixelToGeo.
func (p Projector) GeoToPixel(pt Point) (x, y float64) {
	lonSpan := p.BBox.MaxLon - p.BBox.MinLon
	latSpan := p.BBox.MaxLat - p.BBox.MinLat
	x = (pt.Lon - p.BBox.MinLon) / lonSpan * float64(p.Width)
	y = (p.BBox.MaxLat - pt.Lat) / latSpan * float64(p.Height)
	return x, y
}

// ProjectRect converts a rotated pixel rectangle to a ground polygon. The
// corners are rotated about the rectangle's own center in pixel space, width
// along angleDeg and height perpendicular to it, and then projected.
func (p Projector) ProjectRect(cx, cy, w, h, angleDeg float64) (SpacePolygon, error) {
	if w <= 0 || h <= 0 {
		return SpacePolygon{}, fmt.Errorf("pixel rect %.1fx%.1f: %w", w, h, ErrDegenerateGeometry)
	}

	a := radians(angleDeg)
	cos, sin := math.Cos(a), math.Sin(a)
	hw, hh := w/2, h/2

	offsets := [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	corners := make([]Point, 0, 4)
	for _, o := range offsets {
		x := cx + o[0]*cos - o[1]*sin
		y := cy + o[0]*sin + o[1]*cos
		corners = append(corners, p.PixelToGeo(x, y))
	}

	space, err := NewSpacePolygon(corners, w*p.Resolution, h*p.Resolution)
	if err != nil {
		return SpacePolygon{}, err
	}
	return space.WithRotation(angleDeg), nil
}
