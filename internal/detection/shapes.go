package detection

import (
	"errors"
	"image"
	"math"

	"github.com/ironsheep/truck-parking-mcp/internal/imaging"
)

// ErrEmptyImage is returned when a detector is given no pixels to work on.
var ErrEmptyImage = errors.New("empty image")

// Point represents a 2D pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PixelRect is a rotated rectangle in image coordinates.
//
// Width is the long side and is measured along Angle; Height is the short
// side. Angle is in degrees within [0,180), measured from the +X axis toward
// +Y (clockwise on screen, since image Y grows downward).
type PixelRect struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Angle   float64 `json:"angle"`
}

// Aspect returns long side over short side, or +Inf for a zero-height rect.
func (r PixelRect) Aspect() float64 {
	if r.Height <= 0 {
		return math.Inf(1)
	}
	return r.Width / r.Height
}

// Corners returns the four corners rounded to pixels, in drawing order.
func (r PixelRect) Corners() []image.Point {
	a := r.Angle * math.Pi / 180
	cos, sin := math.Cos(a), math.Sin(a)
	hw, hh := r.Width/2, r.Height/2
	offsets := [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}

	corners := make([]image.Point, 0, 4)
	for _, o := range offsets {
		x := r.CenterX + o[0]*cos - o[1]*sin
		y := r.CenterY + o[0]*sin + o[1]*cos
		corners = append(corners, image.Pt(int(math.Round(x)), int(math.Round(y))))
	}
	return corners
}

// Params tunes ShapeDetector.
type Params struct {
	BlurSigma float64 `mapstructure:"blur_sigma"`
	CannyLow  int     `mapstructure:"canny_low"`
	CannyHigh int     `mapstructure:"canny_high"`
	Dilations int     `mapstructure:"dilations"`
	Erosions  int     `mapstructure:"erosions"`

	// Shapes must have AspectMin < long/short < AspectMax.
	AspectMin float64 `mapstructure:"aspect_min"`
	AspectMax float64 `mapstructure:"aspect_max"`

	// Contour area must fall strictly between these multiples of one
	// space's expected pixel area.
	AreaMinFactor float64 `mapstructure:"area_min_factor"`
	AreaMaxFactor float64 `mapstructure:"area_max_factor"`

	SpaceWidthM  float64 `mapstructure:"space_width_m"`
	SpaceLengthM float64 `mapstructure:"space_length_m"`

	// Resolution in meters per pixel, used when the caller supplies none.
	Resolution float64 `mapstructure:"resolution"`

	// MinContourPixels drops edge fragments smaller than this.
	MinContourPixels int `mapstructure:"min_contour_pixels"`
}

// DefaultParams returns the tuning used for 25cm aerial imagery.
func DefaultParams() Params {
	return Params{
		BlurSigma:        imaging.BlurSigma5x5,
		CannyLow:         50,
		CannyHigh:        150,
		Dilations:        2,
		Erosions:         1,
		AspectMin:        2.5,
		AspectMax:        6.0,
		AreaMinFactor:    0.5,
		AreaMaxFactor:    4.0,
		SpaceWidthM:      4.0,
		SpaceLengthM:     15.0,
		Resolution:       0.25,
		MinContourPixels: 10,
	}
}

// ShapeDetector finds parking-space shaped rectangles in aerial imagery.
type ShapeDetector struct {
	params Params
}

func NewShapeDetector(params Params) *ShapeDetector {
	return &ShapeDetector{params: params}
}

// Params returns the detector's tuning.
func (d *ShapeDetector) Params() Params {
	return d.params
}

// ExpectedArea returns one space's footprint in square pixels at the given
// resolution.
func (d *ShapeDetector) ExpectedArea(resolution float64) float64 {
	if resolution <= 0 {
		resolution = d.params.Resolution
	}
	return (d.params.SpaceWidthM / resolution) * (d.params.SpaceLengthM / resolution)
}

// Detect returns the rotated rectangles in img that look like a single
// parking space at the given ground resolution (meters per pixel; zero uses
// the configured default).
//
// # Algorithm
//
//  1. Grayscale and Gaussian blur
//  2. Canny edges
//  3. Morphological closing (dilate, then erode) to join broken outlines
//  4. External contour extraction
//  5. Minimum-area rotated rectangle per contour
//  6. Aspect-ratio and area gates
//  7. Shrinking each kept rectangle back by the net dilation of step 3
//
// The result has no particular order. An image without matches yields an
// empty slice, not an error.
func (d *ShapeDetector) Detect(img image.Image, resolution float64) ([]PixelRect, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	p := d.params
	gray := imaging.Preprocess(img, p.BlurSigma)
	edges := imaging.Canny(gray, p.CannyLow, p.CannyHigh)
	closed := imaging.Close(edges, p.Dilations, p.Erosions)

	expected := d.ExpectedArea(resolution)
	minArea := expected * p.AreaMinFactor
	maxArea := expected * p.AreaMaxFactor

	// Every dilation the erosions leave standing grows outlines by a pixel
	// on each side.
	grow := 2 * float64(max(0, p.Dilations-p.Erosions))

	rects := make([]PixelRect, 0)
	for _, s := range extractShapes(closed, p.MinContourPixels) {
		aspect := s.rect.Aspect()
		if aspect <= p.AspectMin || aspect >= p.AspectMax {
			continue
		}
		if s.area <= minArea || s.area >= maxArea {
			continue
		}
		rects = append(rects, shrinkRect(s.rect, grow))
	}
	return rects, nil
}

// shrinkRect reduces both side lengths of r by d, keeping at least a pixel.
func shrinkRect(r PixelRect, d float64) PixelRect {
	r.Width = math.Max(r.Width-d, 1)
	r.Height = math.Max(r.Height-d, 1)
	return r
}

// shape is a contour reduced to its enclosing rectangle and enclosed area.
type shape struct {
	rect PixelRect
	area float64
}

// normalizeRect orients a rectangle so Width is the long side and the angle
// lies in [0,180).
func normalizeRect(r PixelRect) PixelRect {
	if r.Height > r.Width {
		r.Width, r.Height = r.Height, r.Width
		r.Angle += 90
	}
	r.Angle = math.Mod(r.Angle, 180)
	if r.Angle < 0 {
		r.Angle += 180
	}
	return r
}
