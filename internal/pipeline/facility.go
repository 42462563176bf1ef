package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/truck-parking-mcp/internal/geo"
)

// Facility is a candidate truck parking site as delivered by the upstream
// collector.
type Facility struct {
	ID       string
	Name     string
	Location geo.Point
	// Boundary is the mapped parking area, if known.
	Boundary []geo.Point
	// Capacity is the advertised number of spaces, zero when unknown.
	Capacity int
	// VehicleKind selects the grid footprint: "truck" or "van".
	VehicleKind string
}

type facilityJSON struct {
	Name        string       `json:"name"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	Boundary    [][2]float64 `json:"boundary,omitempty"`
	Capacity    int          `json:"capacity,omitempty"`
	VehicleKind string       `json:"vehicle_kind,omitempty"`
}

// UnmarshalJSON reads the collector format. Boundary positions are
// [lon, lat] pairs and ids may be strings or numbers.
func (f *Facility) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID json.RawMessage `json:"id"`
		facilityJSON
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := parseID(raw.ID)
	if err != nil {
		return err
	}

	*f = Facility{
		ID:          id,
		Name:        raw.Name,
		Location:    geo.Point{Lat: raw.Latitude, Lon: raw.Longitude},
		Capacity:    raw.Capacity,
		VehicleKind: raw.VehicleKind,
	}
	for _, c := range raw.Boundary {
		f.Boundary = append(f.Boundary, geo.Point{Lon: c[0], Lat: c[1]})
	}
	return nil
}

func (f Facility) MarshalJSON() ([]byte, error) {
	out := facilityJSON{
		Name:        f.Name,
		Latitude:    f.Location.Lat,
		Longitude:   f.Location.Lon,
		Capacity:    f.Capacity,
		VehicleKind: f.VehicleKind,
	}
	for _, p := range f.Boundary {
		out.Boundary = append(out.Boundary, [2]float64{p.Lon, p.Lat})
	}
	return json.Marshal(struct {
		ID string `json:"id"`
		facilityJSON
	}{f.ID, out})
}

func parseID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("facility id %s: %w", raw, err)
	}
	return n.String(), nil
}

// Validate checks the location and, when present, the boundary.
func (f Facility) Validate() error {
	if err := f.Location.Validate(); err != nil {
		return fmt.Errorf("facility %s: %w", f.ID, err)
	}
	for _, p := range f.Boundary {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("facility %s boundary: %w", f.ID, err)
		}
	}
	return nil
}

// ReadFacilities decodes a JSON array of facilities.
func ReadFacilities(r io.Reader) ([]Facility, error) {
	var fs []Facility
	if err := json.NewDecoder(r).Decode(&fs); err != nil {
		return nil, fmt.Errorf("decode facilities: %w", err)
	}
	for _, f := range fs {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// LoadFacilities reads a facility file.
func LoadFacilities(path string) ([]Facility, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open facilities: %w", err)
	}
	defer file.Close()
	return ReadFacilities(file)
}
