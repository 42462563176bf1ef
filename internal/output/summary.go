package output

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/ironsheep/truck-parking-mcp/internal/classify"
	"github.com/ironsheep/truck-parking-mcp/internal/imaging"
	"github.com/ironsheep/truck-parking-mcp/internal/pipeline"
)

// FacilitySummary is the per-facility part of a run summary.
type FacilitySummary struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Source      string         `json:"source"`
	Spaces      int            `json:"spaces"`
	Orientation *float64       `json:"orientation,omitempty"`
	Stats       pipeline.Stats `json:"stats"`
	Error       string         `json:"error,omitempty"`
}

// RunSummary describes one batch run.
type RunSummary struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Facilities  int               `json:"facilities"`
	BySource    map[string]int    `json:"by_source"`
	WithErrors  int               `json:"with_errors"`
	Spaces      int               `json:"spaces"`
	Summary     classify.Summary  `json:"summary"`
	Details     []FacilitySummary `json:"details"`
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// Summarize totals a batch's records.
func Summarize(runID string, records []pipeline.FacilityRecord, now time.Time) RunSummary {
	s := RunSummary{
		RunID:       runID,
		GeneratedAt: now.UTC(),
		Facilities:  len(records),
		BySource: lo.CountValuesBy(records, func(r pipeline.FacilityRecord) string {
			return r.Source
		}),
		WithErrors: lo.CountBy(records, func(r pipeline.FacilityRecord) bool {
			return r.Err != ""
		}),
		Spaces: lo.SumBy(records, func(r pipeline.FacilityRecord) int {
			return len(r.Spaces)
		}),
		Details: make([]FacilitySummary, 0, len(records)),
	}
	for _, rec := range records {
		s.Summary = s.Summary.Merge(rec.Stats.Summary)
		s.Details = append(s.Details, FacilitySummary{
			ID:          rec.ID,
			Name:        rec.Name,
			Source:      rec.Source,
			Spaces:      len(rec.Spaces),
			Orientation: rec.Orientation,
			Stats:       rec.Stats,
			Error:       rec.Err,
		})
	}
	return s
}

// WriteSummary writes s to path as indented JSON.
func WriteSummary(path string, s RunSummary) error {
	return writeJSON(path, s)
}

// WriteAnnotated saves each record's annotated tile as <dir>/facility_<id>.png
// and returns how many were written.
func WriteAnnotated(dir string, records []pipeline.FacilityRecord) (int, error) {
	n := 0
	for _, rec := range records {
		if rec.Annotated == nil {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("facility_%s.png", safeName(rec.ID)))
		if err := imaging.SavePNG(path, rec.Annotated); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// safeName keeps ids like "way/123" usable as file names.
func safeName(id string) string {
	out := []rune(id)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			out[i] = '_'
		}
	}
	if len(out) == 0 {
		return "unnamed"
	}
	return string(out)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
