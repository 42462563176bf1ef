package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ironsheep/truck-parking-mcp/internal/classify"
	"github.com/ironsheep/truck-parking-mcp/internal/detection"
	"github.com/ironsheep/truck-parking-mcp/internal/estimate"
	"github.com/ironsheep/truck-parking-mcp/internal/geo"
	"github.com/ironsheep/truck-parking-mcp/internal/imaging"
	"github.com/ironsheep/truck-parking-mcp/internal/metrics"
	"github.com/ironsheep/truck-parking-mcp/internal/tiles"
	"github.com/ironsheep/truck-parking-mcp/internal/tracing"
)

// Where a record's spaces came from.
const (
	SourceImagery = "imagery"
	SourceGrid    = "grid"
	SourceNone    = "none"
)

// TileSource supplies imagery. *tiles.Fetcher implements it.
type TileSource interface {
	FetchAround(ctx context.Context, center geo.Point) (*tiles.Tile, error)
	FetchPolygon(ctx context.Context, boundary []geo.Point) (*tiles.Tile, error)
}

// ClassifiedSpace is a space together with its vehicle type.
type ClassifiedSpace struct {
	Number         int                     `json:"space_number"`
	Space          geo.SpacePolygon        `json:"space"`
	Classification classify.Classification `json:"classification"`
}

// Stats summarises the spaces of one facility.
type Stats struct {
	Count       int              `json:"count"`
	AvgWidthM   float64          `json:"avg_width_m"`
	AvgLengthM  float64          `json:"avg_length_m"`
	TotalAreaM2 float64          `json:"total_area_m2"`
	Summary     classify.Summary `json:"summary"`
}

// FacilityRecord is the outcome of analyzing one facility. It is assembled
// once and not modified afterwards.
type FacilityRecord struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Location    geo.Point         `json:"location"`
	Spaces      []ClassifiedSpace `json:"spaces"`
	Source      string            `json:"source"`
	Orientation *float64          `json:"orientation,omitempty"`
	Stats       Stats             `json:"stats"`
	// Err records a soft failure, such as missing imagery. The record is
	// still usable.
	Err string `json:"error,omitempty"`

	// Annotated is the tile with detections drawn on it, when requested.
	Annotated *image.RGBA `json:"-"`
}

// Analyzer runs the per-facility pipeline: fetch, detect, project, fall
// back to grid estimation, classify.
type Analyzer struct {
	tiles      TileSource
	shapes     *detection.ShapeDetector
	orient     *detection.OrientationDetector
	grid       *estimate.Estimator
	classifier *classify.Classifier
	annotate   bool
}

type AnalyzerOption func(*Analyzer)

// WithAnnotation makes Analyze attach an annotated tile to imagery records.
func WithAnnotation(on bool) AnalyzerOption {
	return func(a *Analyzer) { a.annotate = on }
}

func NewAnalyzer(src TileSource, shapes *detection.ShapeDetector, orient *detection.OrientationDetector,
	grid *estimate.Estimator, classifier *classify.Classifier, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		tiles:      src,
		shapes:     shapes,
		orient:     orient,
		grid:       grid,
		classifier: classifier,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze never fails outright: missing imagery and unusable geometry are
// recorded in the returned record's Err. Only context cancellation leaves a
// record without any attempt at estimation.
func (a *Analyzer) Analyze(ctx context.Context, f Facility) FacilityRecord {
	log := zerolog.Ctx(ctx)
	start := time.Now()

	ctx, span := tracing.Tracer().Start(ctx, "pipeline.analyze")
	defer span.End()
	span.SetAttributes(attribute.String("facility.id", f.ID))

	rec := FacilityRecord{ID: f.ID, Name: f.Name, Location: f.Location, Source: SourceNone}
	var errs []error

	spaces, annotated, err := a.detect(ctx, f.Location)
	if err != nil {
		errs = append(errs, err)
	}
	if len(spaces) > 0 {
		rec.Source = SourceImagery
	} else if len(f.Boundary) > 0 && ctx.Err() == nil {
		var orientation *float64
		spaces, orientation, err = a.estimate(ctx, f)
		if err != nil {
			errs = append(errs, err)
		}
		rec.Orientation = orientation
		if len(spaces) > 0 {
			rec.Source = SourceGrid
		}
	}

	rec.Spaces = a.classify(spaces)
	rec.Stats = statsOf(rec.Spaces)
	if err := errors.Join(errs...); err != nil {
		rec.Err = err.Error()
	}
	if a.annotate && annotated != nil && rec.Source == SourceImagery {
		rec.Annotated = annotated.draw(rec.Spaces)
	}

	outcome := "ok"
	switch {
	case rec.Source == SourceNone && rec.Err != "":
		outcome = "failed"
	case rec.Source == SourceNone:
		outcome = "empty"
	}
	metrics.FacilitiesProcessed.WithLabelValues(outcome).Inc()
	metrics.FacilityDuration.Observe(time.Since(start).Seconds())
	metrics.SpacesDetected.WithLabelValues(rec.Source).Add(float64(len(rec.Spaces)))

	span.SetAttributes(
		attribute.String("parking.source", rec.Source),
		attribute.Int("parking.spaces", len(rec.Spaces)),
	)
	log.Info().
		Str("source", rec.Source).
		Int("spaces", len(rec.Spaces)).
		Dur("elapsed", time.Since(start)).
		Msg("facility analyzed")
	return rec
}

// detect looks for individual spaces in the tile around the facility.
func (a *Analyzer) detect(ctx context.Context, center geo.Point) ([]geo.SpacePolygon, *tileView, error) {
	log := zerolog.Ctx(ctx)

	tile, err := a.tiles.FetchAround(ctx, center)
	if err != nil {
		log.Warn().Err(err).Msg("no imagery around facility")
		return nil, nil, err
	}
	proj, err := tile.Projector()
	if err != nil {
		return nil, nil, err
	}

	rects, err := a.shapes.Detect(tile.Image, tile.Resolution)
	if err != nil {
		return nil, nil, fmt.Errorf("detect spaces: %w", err)
	}

	spaces := make([]geo.SpacePolygon, 0, len(rects))
	for _, r := range rects {
		s, err := proj.ProjectRect(r.CenterX, r.CenterY, r.Width, r.Height, r.Angle)
		if err != nil {
			log.Debug().Err(err).Msg("skipping space")
			continue
		}
		spaces = append(spaces, s)
	}
	log.Debug().Int("rects", len(rects)).Int("spaces", len(spaces)).Msg("imagery detection done")
	return spaces, &tileView{img: tile.Image, proj: proj}, nil
}

// estimate fills the facility boundary with grid spaces, turned to the
// dominant row orientation when the boundary's imagery shows one.
func (a *Analyzer) estimate(ctx context.Context, f Facility) ([]geo.SpacePolygon, *float64, error) {
	log := zerolog.Ctx(ctx)

	var rotation *float64
	if tile, err := a.tiles.FetchPolygon(ctx, f.Boundary); err != nil {
		log.Debug().Err(err).Msg("no imagery for boundary, estimating without orientation")
	} else if angle, ok := a.orient.Detect(tile.Image); ok {
		rotation = &angle
		log.Debug().Float64("angle", angle).Msg("row orientation detected")
	}

	fp := a.grid.Footprint(f.VehicleKind)
	area := geo.PolygonAreaM2(f.Boundary, geo.Centroid(f.Boundary).Lat)
	capacity := a.grid.Capacity(f.Capacity, 0, 1, area, fp)

	spaces, err := a.grid.Estimate(f.Boundary, capacity, fp, rotation)
	if err != nil {
		return nil, rotation, fmt.Errorf("estimate grid: %w", err)
	}
	return spaces, rotation, nil
}

func (a *Analyzer) classify(spaces []geo.SpacePolygon) []ClassifiedSpace {
	out := make([]ClassifiedSpace, 0, len(spaces))
	for i, s := range spaces {
		c := a.classifier.Classify(s.WidthM, s.LengthM, s.AreaM2)
		metrics.Classifications.WithLabelValues(string(c.Type)).Inc()
		out = append(out, ClassifiedSpace{Number: i + 1, Space: s, Classification: c})
	}
	return out
}

func statsOf(spaces []ClassifiedSpace) Stats {
	st := Stats{Count: len(spaces)}
	entries := make([]classify.Entry, 0, len(spaces))
	for _, s := range spaces {
		st.AvgWidthM += s.Space.WidthM
		st.AvgLengthM += s.Space.LengthM
		st.TotalAreaM2 += s.Space.AreaM2
		entries = append(entries, classify.Entry{Classification: s.Classification, AreaM2: s.Space.AreaM2})
	}
	if st.Count > 0 {
		st.AvgWidthM = round2(st.AvgWidthM / float64(st.Count))
		st.AvgLengthM = round2(st.AvgLengthM / float64(st.Count))
	}
	st.Summary = classify.Summarize(entries)
	return st
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// tileView keeps the imagery a detection ran on, for annotation.
type tileView struct {
	img  image.Image
	proj geo.Projector
}

func (v *tileView) draw(spaces []ClassifiedSpace) *image.RGBA {
	marks := make([]imaging.Mark, 0, len(spaces))
	for _, s := range spaces {
		corners := make([]image.Point, 0, 4)
		for _, p := range s.Space.Ring[:len(s.Space.Ring)-1] {
			x, y := v.proj.GeoToPixel(p)
			corners = append(corners, image.Pt(int(math.Round(x)), int(math.Round(y))))
		}
		marks = append(marks, imaging.Mark{
			Corners: corners,
			Color:   s.Classification.RGBA(),
			Label:   fmt.Sprintf("#%d: %.0fx%.0fm", s.Number, s.Space.LengthM, s.Space.WidthM),
		})
	}
	return imaging.Annotate(v.img, marks, fmt.Sprintf("Detected: %d spaces", len(spaces)))
}
