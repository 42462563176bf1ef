package output

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matryer/is"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ironsheep/truck-parking-mcp/internal/classify"
	"github.com/ironsheep/truck-parking-mcp/internal/geo"
	"github.com/ironsheep/truck-parking-mcp/internal/pipeline"
)

func space(t *testing.T, w, l float64, rotation *float64) geo.SpacePolygon {
	t.Helper()
	corners := []geo.Point{
		{Lat: 51.9500, Lon: 4.0500},
		{Lat: 51.9500, Lon: 4.0501},
		{Lat: 51.9501, Lon: 4.0501},
		{Lat: 51.9501, Lon: 4.0500},
	}
	s, err := geo.NewSpacePolygon(corners, w, l)
	if err != nil {
		t.Fatalf("failed to build space: %v", err)
	}
	if rotation != nil {
		s = s.WithRotation(*rotation)
	}
	return s
}

func testRecords(t *testing.T) []pipeline.FacilityRecord {
	cl := classify.New(classify.DefaultConfig())
	rot := 30.0

	single := pipeline.ClassifiedSpace{Number: 1, Space: space(t, 4, 15, &rot), Classification: cl.Classify(4, 15, 60)}
	row := pipeline.ClassifiedSpace{Number: 2, Space: space(t, 4, 50, nil), Classification: cl.Classify(4, 50, 200)}

	return []pipeline.FacilityRecord{
		{
			ID:     "42",
			Name:   "Truckstop",
			Source: pipeline.SourceImagery,
			Spaces: []pipeline.ClassifiedSpace{single, row},
			Stats: pipeline.Stats{Count: 2, Summary: classify.Summarize([]classify.Entry{
				{Classification: single.Classification, AreaM2: 60},
				{Classification: row.Classification, AreaM2: 200},
			})},
		},
		{ID: "43", Name: "Empty", Source: pipeline.SourceNone, Err: "image unavailable"},
	}
}

func TestFeatureCollection(t *testing.T) {
	is := is.New(t)

	fc := FeatureCollection(testRecords(t))
	is.Equal(len(fc.Features), 2)

	f := fc.Features[0]
	poly, ok := f.Geometry.(orb.Polygon)
	is.True(ok)
	is.Equal(len(poly[0]), 5)
	is.Equal(poly[0][0], poly[0][4])              // closed ring
	is.Equal(poly[0][1], orb.Point{4.0501, 51.95}) // [lon, lat]

	is.Equal(f.Properties["facility_id"], "42")
	is.Equal(f.Properties["vehicle_type"], "standard_truck")
	is.Equal(f.Properties["vehicle_label"], "Standard Truck")
	is.Equal(f.Properties["confidence"], 1.0)
	is.Equal(f.Properties["is_parking_row"], false)
	is.Equal(f.Properties["estimated"], false)
	is.Equal(f.Properties["color"], "#ef4444")
	is.Equal(f.Properties["rotation_angle"], 30.0)
	_, hasRow := f.Properties["estimated_cars"]
	is.True(!hasRow)

	row := fc.Features[1]
	is.Equal(row.Properties["space_number"], 2)
	is.Equal(row.Properties["is_parking_row"], true)
	is.Equal(row.Properties["estimated_standard_trucks"], 3)
	is.Equal(row.Properties["estimated_cars"], 10)
	_, hasRotation := row.Properties["rotation_angle"]
	is.True(!hasRotation)
}

func TestWriteGeoJSON(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "spaces.geojson")
	runID := NewRunID()
	is.NoErr(WriteGeoJSON(path, runID, testRecords(t)))

	b, err := os.ReadFile(path)
	is.NoErr(err)

	fc, err := geojson.UnmarshalFeatureCollection(b)
	is.NoErr(err)
	is.Equal(len(fc.Features), 2)
	is.Equal(fc.ExtraMembers["run_id"], runID)
	is.Equal(fc.Features[1].Properties["estimated_lzv"], 1.0) // numbers decode as float64
}

func TestSummarize(t *testing.T) {
	is := is.New(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	s := Summarize("run-1", testRecords(t), now)

	is.Equal(s.RunID, "run-1")
	is.Equal(s.GeneratedAt, now.UTC())
	is.Equal(s.Facilities, 2)
	is.Equal(s.Spaces, 2)
	is.Equal(s.WithErrors, 1)
	is.Equal(s.BySource[pipeline.SourceImagery], 1)
	is.Equal(s.BySource[pipeline.SourceNone], 1)
	is.Equal(s.Summary.Capacity[classify.RowStandardTrucks], 1+3)
	is.Equal(len(s.Details), 2)
	is.Equal(s.Details[1].Error, "image unavailable")
}

func TestWriteSummary(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "summary.json")
	is.NoErr(WriteSummary(path, Summarize("run-2", testRecords(t), time.Now())))

	b, err := os.ReadFile(path)
	is.NoErr(err)
	var got map[string]any
	is.NoErr(json.Unmarshal(b, &got))
	is.Equal(got["run_id"], "run-2")
	is.Equal(got["facilities"], 2.0)
}

func TestNewRunID(t *testing.T) {
	is := is.New(t)

	id := NewRunID()
	_, err := uuid.Parse(id)
	is.NoErr(err)
	is.True(id != NewRunID())
}

func TestWriteAnnotated(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	recs := []pipeline.FacilityRecord{
		{ID: "way/12", Annotated: image.NewRGBA(image.Rect(0, 0, 8, 8))},
		{ID: "13"},
	}
	n, err := WriteAnnotated(dir, recs)
	is.NoErr(err)
	is.Equal(n, 1)

	_, err = os.Stat(filepath.Join(dir, "facility_way_12.png"))
	is.NoErr(err)
}

func TestSafeName(t *testing.T) {
	is := is.New(t)

	is.Equal(safeName("node/123"), "node_123")
	is.Equal(safeName("a-b_c"), "a-b_c")
	is.Equal(safeName(""), "unnamed")
}
