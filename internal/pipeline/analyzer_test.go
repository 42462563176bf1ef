package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/matryer/is"

	"github.com/ironsheep/truck-parking-mcp/internal/classify"
	"github.com/ironsheep/truck-parking-mcp/internal/detection"
	"github.com/ironsheep/truck-parking-mcp/internal/estimate"
	"github.com/ironsheep/truck-parking-mcp/internal/geo"
	"github.com/ironsheep/truck-parking-mcp/internal/tiles"
)

var (
	asphalt = color.RGBA{50, 50, 50, 255}
	paint   = color.RGBA{200, 200, 200, 255}
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func fillRect(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			img.Set(x, y, c)
		}
	}
}

// tileAround builds a 400x400 tile at 0.25 m/px centered on p.
func tileAround(t *testing.T, p geo.Point, img image.Image) *tiles.Tile {
	t.Helper()
	bbox, err := geo.NewBoundingBox(p, 100, 100)
	if err != nil {
		t.Fatalf("failed to build bbox: %v", err)
	}
	return &tiles.Tile{Image: img, BBox: bbox, Resolution: bbox.WidthM() / float64(img.Bounds().Dx())}
}

type fakeTiles struct {
	around     *tiles.Tile
	aroundErr  error
	polygon    *tiles.Tile
	polygonErr error

	polygonCalls atomic.Int32
}

func (f *fakeTiles) FetchAround(ctx context.Context, _ geo.Point) (*tiles.Tile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.around, f.aroundErr
}

func (f *fakeTiles) FetchPolygon(ctx context.Context, _ []geo.Point) (*tiles.Tile, error) {
	f.polygonCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.polygon, f.polygonErr
}

func newTestAnalyzer(src TileSource, opts ...AnalyzerOption) *Analyzer {
	return NewAnalyzer(src,
		detection.NewShapeDetector(detection.DefaultParams()),
		detection.NewOrientationDetector(detection.DefaultOrientationParams()),
		estimate.New(estimate.DefaultConfig()),
		classify.New(classify.DefaultConfig()),
		opts...)
}

var maasvlakte = geo.Point{Lat: 51.95, Lon: 4.05}

// boundaryAround is a w x h meter rectangle centered on p.
func boundaryAround(t *testing.T, p geo.Point, w, h float64) []geo.Point {
	t.Helper()
	b, err := geo.NewBoundingBox(p, w, h)
	if err != nil {
		t.Fatalf("failed to build boundary: %v", err)
	}
	return []geo.Point{
		{Lat: b.MinLat, Lon: b.MinLon},
		{Lat: b.MinLat, Lon: b.MaxLon},
		{Lat: b.MaxLat, Lon: b.MaxLon},
		{Lat: b.MaxLat, Lon: b.MinLon},
	}
}

func TestAnalyzeImagery(t *testing.T) {
	is := is.New(t)

	img := solidImage(400, 400, asphalt)
	fillRect(img, 150, 150, 166, 210, paint) // one 4m x 15m space
	src := &fakeTiles{around: tileAround(t, maasvlakte, img)}

	rec := newTestAnalyzer(src, WithAnnotation(true)).Analyze(context.Background(), Facility{
		ID:       "42",
		Name:     "Truckstop",
		Location: maasvlakte,
		Boundary: boundaryAround(t, maasvlakte, 80, 80),
	})

	is.Equal(rec.Source, SourceImagery)
	is.Equal(rec.Err, "")
	is.True(len(rec.Spaces) >= 1)
	is.Equal(rec.Spaces[0].Number, 1)
	is.True(!rec.Spaces[0].Space.Estimated)
	is.True(rec.Spaces[0].Space.Rotation != nil)
	is.Equal(rec.Stats.Count, len(rec.Spaces))
	is.True(rec.Annotated != nil)
	is.Equal(src.polygonCalls.Load(), int32(0)) // no grid fallback needed

	// the detected space sits near the painted rectangle
	c := rec.Spaces[0].Space.Center()
	proj, err := geo.NewProjector(tileAround(t, maasvlakte, img).BBox, 400, 400, 0.25)
	is.NoErr(err)
	x, y := proj.GeoToPixel(c)
	is.True(x > 150 && x < 166)
	is.True(y > 150 && y < 210)
}

func TestAnalyzeFallsBackToGrid(t *testing.T) {
	is := is.New(t)

	src := &fakeTiles{
		aroundErr:  fmt.Errorf("imagery service returned 503: %w", tiles.ErrImageUnavailable),
		polygonErr: tiles.ErrImageUnavailable,
	}
	rec := newTestAnalyzer(src).Analyze(context.Background(), Facility{
		ID:       "7",
		Location: maasvlakte,
		Boundary: boundaryAround(t, maasvlakte, 100, 50),
		Capacity: 12,
	})

	is.Equal(rec.Source, SourceGrid)
	is.Equal(len(rec.Spaces), 12)
	is.Equal(rec.Orientation, nil)
	is.True(strings.Contains(rec.Err, "503")) // soft failure kept on the record
	for i, s := range rec.Spaces {
		is.Equal(s.Number, i+1)
		is.True(s.Space.Estimated)
		is.Equal(s.Classification.Type, classify.StandardTruck)
	}
	is.Equal(rec.Stats.AvgWidthM, 4.0)
	is.Equal(rec.Stats.AvgLengthM, 15.0)
	is.Equal(rec.Stats.TotalAreaM2, 720.0)
	is.Equal(rec.Stats.Summary.Capacity[classify.RowStandardTrucks], 12)
}

func TestAnalyzeGridUsesBoundaryOrientation(t *testing.T) {
	is := is.New(t)

	// painted row lines every 20px
	stripes := solidImage(200, 200, color.RGBA{60, 60, 60, 255})
	for y := 20; y < 190; y += 20 {
		fillRect(stripes, 20, y, 180, y+3, color.RGBA{230, 230, 230, 255})
	}
	src := &fakeTiles{
		around:  tileAround(t, maasvlakte, solidImage(400, 400, asphalt)),
		polygon: tileAround(t, maasvlakte, stripes),
	}
	rec := newTestAnalyzer(src).Analyze(context.Background(), Facility{
		Location:    maasvlakte,
		Boundary:    boundaryAround(t, maasvlakte, 40, 40),
		VehicleKind: estimate.KindVan,
	})

	is.Equal(rec.Source, SourceGrid)
	is.Equal(rec.Err, "")
	is.True(rec.Orientation != nil)
	is.Equal(*rec.Orientation, 0.0)
	is.True(len(rec.Spaces) > 0)
	is.Equal(rec.Spaces[0].Space.WidthM, 2.5) // van footprint
	is.Equal(rec.Spaces[0].Classification.Type, classify.CarVan)
}

func TestAnalyzeWithoutImageryOrBoundary(t *testing.T) {
	is := is.New(t)

	src := &fakeTiles{aroundErr: tiles.ErrImageUnavailable}
	rec := newTestAnalyzer(src).Analyze(context.Background(), Facility{ID: "1", Location: maasvlakte})

	is.Equal(rec.Source, SourceNone)
	is.Equal(len(rec.Spaces), 0)
	is.True(rec.Err != "")
	is.Equal(src.polygonCalls.Load(), int32(0))
}

func TestAnalyzeDegenerateBoundary(t *testing.T) {
	is := is.New(t)

	src := &fakeTiles{aroundErr: tiles.ErrImageUnavailable, polygonErr: tiles.ErrImageUnavailable}
	rec := newTestAnalyzer(src).Analyze(context.Background(), Facility{
		Location: maasvlakte,
		Boundary: []geo.Point{maasvlakte, maasvlakte},
	})

	is.Equal(rec.Source, SourceNone)
	is.True(strings.Contains(rec.Err, geo.ErrDegenerateGeometry.Error()))
}

func TestAnalyzeCancelled(t *testing.T) {
	is := is.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeTiles{around: tileAround(t, maasvlakte, solidImage(10, 10, asphalt))}
	rec := newTestAnalyzer(src).Analyze(ctx, Facility{
		Location: maasvlakte,
		Boundary: boundaryAround(t, maasvlakte, 100, 50),
	})

	is.Equal(rec.Source, SourceNone)
	is.True(strings.Contains(rec.Err, context.Canceled.Error()))
	is.Equal(src.polygonCalls.Load(), int32(0))
}

func TestStatsOfEmpty(t *testing.T) {
	is := is.New(t)

	st := statsOf(nil)
	is.Equal(st.Count, 0)
	is.Equal(st.AvgWidthM, 0.0)
	is.Equal(st.Summary.Capacity[classify.RowCars], 0)
}
