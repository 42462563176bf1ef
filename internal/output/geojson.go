package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"

	"github.com/ironsheep/truck-parking-mcp/internal/classify"
	"github.com/ironsheep/truck-parking-mcp/internal/pipeline"
)

// FeatureCollection renders every space of every record as a Polygon
// feature. Coordinates are [lon, lat] and rings are closed.
func FeatureCollection(records []pipeline.FacilityRecord) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, rec := range records {
		for _, s := range rec.Spaces {
			fc.Append(Feature(rec, s))
		}
	}
	return fc
}

// Feature renders one space of rec.
func Feature(rec pipeline.FacilityRecord, s pipeline.ClassifiedSpace) *geojson.Feature {
	f := geojson.NewFeature(s.Space.Polygon())
	c := s.Classification

	f.Properties["facility_id"] = rec.ID
	f.Properties["facility_name"] = rec.Name
	f.Properties["space_number"] = s.Number
	f.Properties["width_m"] = round2(s.Space.WidthM)
	f.Properties["length_m"] = round2(s.Space.LengthM)
	f.Properties["area_m2"] = round2(s.Space.AreaM2)
	f.Properties["vehicle_type"] = string(c.Type)
	f.Properties["vehicle_label"] = c.Label
	f.Properties["confidence"] = c.Confidence
	f.Properties["is_parking_row"] = c.IsParkingRow
	f.Properties["estimated"] = s.Space.Estimated
	f.Properties["color"] = c.Color

	if c.IsParkingRow {
		f.Properties["estimated_standard_trucks"] = c.EstimatedVehicles[classify.RowStandardTrucks]
		f.Properties["estimated_heavy_trucks"] = c.EstimatedVehicles[classify.RowHeavyTrucks]
		f.Properties["estimated_lzv"] = c.EstimatedVehicles[classify.RowLZV]
		f.Properties["estimated_cars"] = c.EstimatedVehicles[classify.RowCars]
	}
	if s.Space.Rotation != nil {
		f.Properties["rotation_angle"] = *s.Space.Rotation
	}
	return f
}

// WriteGeoJSON writes the records' spaces to path as an indented
// FeatureCollection tagged with the run id.
func WriteGeoJSON(path, runID string, records []pipeline.FacilityRecord) error {
	fc := FeatureCollection(records)
	fc.ExtraMembers = geojson.Properties{"run_id": runID}
	return writeJSON(path, fc)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
