package tiles

import (
	"errors"
	"image"
	"time"

	"github.com/ironsheep/truck-parking-mcp/internal/geo"
)

// ErrImageUnavailable is returned when the imagery service cannot supply a
// usable raster. Callers treat it as soft: the facility gets no detections.
var ErrImageUnavailable = errors.New("image unavailable")

// Tile is a raster together with the ground region it depicts.
// It is never mutated after the fetch that produced it returns.
type Tile struct {
	Image      image.Image
	BBox       geo.BoundingBox
	Resolution float64 // meters per pixel
}

func (t *Tile) Width() int {
	return t.Image.Bounds().Dx()
}

func (t *Tile) Height() int {
	return t.Image.Bounds().Dy()
}

// Projector maps this tile's pixels to coordinates.
func (t *Tile) Projector() (geo.Projector, error) {
	return geo.NewProjector(t.BBox, t.Width(), t.Height(), t.Resolution)
}

// Request describes one GetMap call.
type Request struct {
	BBox   geo.BoundingBox
	Width  int
	Height int
}

// Config controls the WMS client.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Layer   string        `mapstructure:"layer"`
	Format  string        `mapstructure:"format"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Delay is the minimum spacing between remote requests.
	Delay time.Duration `mapstructure:"delay"`

	// Point fetches cover CoverageM x CoverageM meters at Width x Height.
	CoverageM float64 `mapstructure:"coverage_m"`
	Width     int     `mapstructure:"width"`
	Height    int     `mapstructure:"height"`

	// Polygon fetches cover the boundary's extent plus BufferM on each side.
	BufferM       float64 `mapstructure:"buffer_m"`
	PolygonWidth  int     `mapstructure:"polygon_width"`
	PolygonHeight int     `mapstructure:"polygon_height"`
}

// DefaultConfig targets the PDOK 25cm orthophoto service.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://service.pdok.nl/hwh/luchtfotorgb/wms/v1_0",
		Layer:         "Actueel_orthoHR",
		Format:        "image/png",
		Timeout:       30 * time.Second,
		Delay:         2 * time.Second,
		CoverageM:     200,
		Width:         800,
		Height:        800,
		BufferM:       20,
		PolygonWidth:  512,
		PolygonHeight: 512,
	}
}
