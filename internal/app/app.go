// Package app wires configuration into the components both commands share.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ironsheep/truck-parking-mcp/internal/classify"
	"github.com/ironsheep/truck-parking-mcp/internal/config"
	"github.com/ironsheep/truck-parking-mcp/internal/detection"
	"github.com/ironsheep/truck-parking-mcp/internal/estimate"
	"github.com/ironsheep/truck-parking-mcp/internal/pipeline"
	"github.com/ironsheep/truck-parking-mcp/internal/tiles"
)

// Components is the assembled pipeline.
type Components struct {
	Cache       tiles.Cache
	Fetcher     *tiles.Fetcher
	Shapes      *detection.ShapeDetector
	Orientation *detection.OrientationDetector
	Grid        *estimate.Estimator
	Classifier  *classify.Classifier
	Analyzer    *pipeline.Analyzer
}

// Build assembles the components described by cfg. The returned cleanup
// releases external connections and must be called when done.
func Build(cfg *config.Config, log zerolog.Logger) (*Components, func(), error) {
	cache, cleanup, err := NewCache(cfg.Cache, log)
	if err != nil {
		return nil, nil, err
	}

	c := &Components{
		Cache:       cache,
		Fetcher:     tiles.NewFetcher(cfg.Imagery, tiles.WithCache(cache), tiles.WithLogger(log)),
		Shapes:      detection.NewShapeDetector(cfg.Detection),
		Orientation: detection.NewOrientationDetector(cfg.Orientation),
		Grid:        estimate.New(cfg.Grid),
		Classifier:  classify.New(cfg.Classifier),
	}
	c.Analyzer = pipeline.NewAnalyzer(c.Fetcher, c.Shapes, c.Orientation, c.Grid, c.Classifier,
		pipeline.WithAnnotation(cfg.Batch.AnnotateDir != ""))

	log.Debug().
		Str("backend", cfg.Cache.Backend).
		Str("imagery", cfg.Imagery.BaseURL).
		Str("detector", detection.Backend).
		Msg("components ready")
	return c, cleanup, nil
}

// NewCache opens the configured tile cache.
func NewCache(cfg config.CacheConfig, log zerolog.Logger) (tiles.Cache, func(), error) {
	switch cfg.Backend {
	case config.CacheNone:
		return tiles.NopCache{}, func() {}, nil
	case config.CacheValkey:
		vc, err := tiles.NewValkeyCache(cfg.ValkeyAddr, cfg.TTL, log)
		if err != nil {
			return nil, nil, err
		}
		return vc, vc.Close, nil
	case config.CacheMemory, "":
		return tiles.NewMemoryCache(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
