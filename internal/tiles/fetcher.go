package tiles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/ironsheep/truck-parking-mcp/internal/geo"
	"github.com/ironsheep/truck-parking-mcp/internal/imaging"
	"github.com/ironsheep/truck-parking-mcp/internal/metrics"
	"github.com/ironsheep/truck-parking-mcp/internal/tracing"
)

// maxPayloadBytes caps how much of a response body is read.
const maxPayloadBytes = 64 << 20

// Fetcher retrieves orthophoto tiles from a WMS 1.3.0 service.
//
// All remote requests made through one Fetcher share its rate limiter, so
// concurrent callers are throttled globally. Cache hits skip the limiter.
type Fetcher struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	cache   Cache
	log     zerolog.Logger
}

type Option func(*Fetcher)

func WithCache(c Cache) Option {
	return func(f *Fetcher) { f.cache = c }
}

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// NewLimiter allows one request per delay. A non-positive delay disables
// throttling.
func NewLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func NewFetcher(cfg Config, opts ...Option) *Fetcher {
	f := &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: NewLimiter(cfg.Delay),
		cache:   NopCache{},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) Config() Config {
	return f.cfg
}

// URL builds the GetMap request. WMS 1.3.0 with EPSG:4326 uses lat/lon axis
// order in BBOX.
func (f *Fetcher) URL(req Request) string {
	q := url.Values{}
	q.Set("SERVICE", "WMS")
	q.Set("VERSION", "1.3.0")
	q.Set("REQUEST", "GetMap")
	q.Set("LAYERS", f.cfg.Layer)
	q.Set("STYLES", "")
	q.Set("CRS", "EPSG:4326")
	q.Set("BBOX", req.BBox.String())
	q.Set("WIDTH", strconv.Itoa(req.Width))
	q.Set("HEIGHT", strconv.Itoa(req.Height))
	q.Set("FORMAT", f.cfg.Format)
	return f.cfg.BaseURL + "?" + q.Encode()
}

// FetchAround fetches the configured coverage square centered on center.
func (f *Fetcher) FetchAround(ctx context.Context, center geo.Point) (*Tile, error) {
	bbox, err := geo.NewBoundingBox(center, f.cfg.CoverageM, f.cfg.CoverageM)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, Request{BBox: bbox, Width: f.cfg.Width, Height: f.cfg.Height})
}

// FetchPolygon fetches the boundary's extent grown by the configured buffer.
func (f *Fetcher) FetchPolygon(ctx context.Context, boundary []geo.Point) (*Tile, error) {
	bbox, err := geo.BoundsOf(boundary)
	if err != nil {
		return nil, err
	}
	bbox, err = bbox.Buffer(f.cfg.BufferM)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, Request{BBox: bbox, Width: f.cfg.PolygonWidth, Height: f.cfg.PolygonHeight})
}

// Fetch issues one GetMap request, or serves it from the cache.
//
// Transport errors, non-200 responses and undecodable payloads are reported
// as ErrImageUnavailable. Context cancellation while waiting for the rate
// limiter is returned as-is.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*Tile, error) {
	if !req.BBox.Valid() || req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("tile request %+v: %w", req, geo.ErrDegenerateGeometry)
	}

	u := f.URL(req)

	ctx, span := tracing.Tracer().Start(ctx, "tiles.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("wms.bbox", req.BBox.String()))

	if data, ok := f.cache.Get(ctx, u); ok {
		if tile, err := f.decode(data, req); err == nil {
			metrics.TilesFetched.WithLabelValues("cache").Inc()
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return tile, nil
		}
		f.log.Warn().Str("url", u).Msg("discarding undecodable cached tile")
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for imagery rate limit: %w", err)
	}

	start := time.Now()
	data, err := f.get(ctx, u)
	metrics.TileFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	tile, err := f.decode(data, req)
	if err != nil {
		metrics.TileFailures.WithLabelValues("decode").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	f.cache.Set(ctx, u, data)
	metrics.TilesFetched.WithLabelValues("remote").Inc()
	f.log.Debug().Str("bbox", req.BBox.String()).Int("bytes", len(data)).Msg("fetched tile")
	return tile, nil
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build imagery request: %w", err)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		metrics.TileFailures.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("imagery request failed: %v: %w", err, ErrImageUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.TileFailures.WithLabelValues("status").Inc()
		return nil, fmt.Errorf("imagery service returned %d: %w", resp.StatusCode, ErrImageUnavailable)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		metrics.TileFailures.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("read imagery response: %v: %w", err, ErrImageUnavailable)
	}
	return data, nil
}

// decode turns a payload into a tile of exactly the requested size.
func (f *Fetcher) decode(data []byte, req Request) (*Tile, error) {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrImageUnavailable)
	}
	img = imaging.Resize(img, req.Width, req.Height)

	return &Tile{
		Image:      img,
		BBox:       req.BBox,
		Resolution: req.BBox.WidthM() / float64(req.Width),
	}, nil
}
