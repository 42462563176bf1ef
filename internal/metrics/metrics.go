// Package metrics holds the Prometheus instruments shared by the fetcher and
// the pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Imagery metrics
	TilesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parking",
		Subsystem: "tiles",
		Name:      "fetched_total",
		Help:      "Tiles obtained, by source (remote or cache)",
	}, []string{"source"})

	TileFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parking",
		Subsystem: "tiles",
		Name:      "failures_total",
		Help:      "Tile requests that yielded no usable image, by reason",
	}, []string{"reason"})

	TileFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "parking",
		Subsystem: "tiles",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of remote tile requests",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	// Pipeline metrics
	SpacesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parking",
		Subsystem: "pipeline",
		Name:      "spaces_total",
		Help:      "Parking spaces produced, by source (imagery or grid)",
	}, []string{"source"})

	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parking",
		Subsystem: "pipeline",
		Name:      "classifications_total",
		Help:      "Spaces classified, by vehicle type",
	}, []string{"vehicle_type"})

	FacilitiesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parking",
		Subsystem: "pipeline",
		Name:      "facilities_total",
		Help:      "Facilities analyzed, by outcome",
	}, []string{"outcome"})

	FacilityDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "parking",
		Subsystem: "pipeline",
		Name:      "facility_duration_seconds",
		Help:      "Wall time spent analyzing one facility",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})
)

// WriteTextfile dumps the default registry in the node_exporter textfile
// format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
