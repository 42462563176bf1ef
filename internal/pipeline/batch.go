package pipeline

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/truck-parking-mcp/internal/geo"
)

// FacilityAnalyzer is the per-facility step of a Batch.
type FacilityAnalyzer interface {
	Analyze(ctx context.Context, f Facility) FacilityRecord
}

// BatchConfig tunes a Batch run.
type BatchConfig struct {
	Workers int `mapstructure:"workers"`
	// Region, when set, restricts the run to facilities located inside it.
	Region *geo.BoundingBox `mapstructure:"region"`
}

// Batch analyzes many facilities in parallel.
//
// Workers bounds how many facilities are in flight. Imagery throttling is the
// tile source's concern; a Fetcher's limiter is shared by all workers.
type Batch struct {
	analyzer FacilityAnalyzer
	cfg      BatchConfig
	log      zerolog.Logger
}

func NewBatch(analyzer FacilityAnalyzer, cfg BatchConfig, log zerolog.Logger) *Batch {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Batch{analyzer: analyzer, cfg: cfg, log: log}
}

// Filter returns the facilities inside the configured region, or all of
// them when no region is set.
func (b *Batch) Filter(facilities []Facility) []Facility {
	if b.cfg.Region == nil {
		return facilities
	}
	out := make([]Facility, 0, len(facilities))
	for _, f := range facilities {
		if b.cfg.Region.Contains(f.Location) {
			out = append(out, f)
		}
	}
	return out
}

// Run analyzes the facilities that pass Filter and returns their records in
// input order. A failing facility never stops the others. Cancelling ctx
// stops new facilities from starting; the records finished so far are
// returned together with the context's error.
func (b *Batch) Run(ctx context.Context, facilities []Facility) ([]FacilityRecord, error) {
	selected := b.Filter(facilities)
	b.log.Info().
		Int("facilities", len(selected)).
		Int("skipped", len(facilities)-len(selected)).
		Int("workers", b.cfg.Workers).
		Msg("starting batch")

	records := make([]FacilityRecord, len(selected))
	done := make([]bool, len(selected))

	var g errgroup.Group
	g.SetLimit(b.cfg.Workers)

	for i, f := range selected {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fctx := b.log.With().Str("facility_id", f.ID).Str("facility", f.Name).Logger().WithContext(ctx)
			records[i] = b.analyzer.Analyze(fctx, f)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := make([]FacilityRecord, 0, len(records))
	failed := 0
	for i, rec := range records {
		if !done[i] {
			continue
		}
		if rec.Err != "" {
			failed++
		}
		out = append(out, rec)
	}

	b.log.Info().
		Int("analyzed", len(out)).
		Int("with_errors", failed).
		Msg("batch finished")
	return out, ctx.Err()
}
