package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/ironsheep/truck-parking-mcp/internal/geo"
)

const facilitiesJSON = `[
  {
    "id": 123456,
    "name": "Truck Parking Maasvlakte",
    "latitude": 51.955,
    "longitude": 4.021,
    "boundary": [[4.020, 51.954], [4.022, 51.954], [4.022, 51.956], [4.020, 51.956], [4.020, 51.954]],
    "capacity": 40,
    "vehicle_kind": "truck"
  },
  {"id": "node/77", "name": "Verzorgingsplaats", "latitude": 52.01, "longitude": 4.35}
]`

func TestReadFacilities(t *testing.T) {
	is := is.New(t)

	fs, err := ReadFacilities(strings.NewReader(facilitiesJSON))
	is.NoErr(err)
	is.Equal(len(fs), 2)

	f := fs[0]
	is.Equal(f.ID, "123456")
	is.Equal(f.Location, geo.Point{Lat: 51.955, Lon: 4.021})
	is.Equal(len(f.Boundary), 5)
	is.Equal(f.Boundary[1], geo.Point{Lat: 51.954, Lon: 4.022}) // [lon, lat] input
	is.Equal(f.Capacity, 40)
	is.Equal(f.VehicleKind, "truck")

	is.Equal(fs[1].ID, "node/77")
	is.Equal(len(fs[1].Boundary), 0)
}

func TestReadFacilitiesRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not an array", `{"id": 1}`},
		{"latitude out of range", `[{"id": 1, "latitude": 95, "longitude": 4}]`},
		{"bad boundary", `[{"id": 1, "latitude": 52, "longitude": 4, "boundary": [[4, 200]]}]`},
		{"bad id", `[{"id": [1], "latitude": 52, "longitude": 4}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			_, err := ReadFacilities(strings.NewReader(tt.json))
			is.True(err != nil)
		})
	}
}

func TestFacilityJSONRoundTrip(t *testing.T) {
	is := is.New(t)

	in := Facility{
		ID:       "9",
		Name:     "Depot",
		Location: geo.Point{Lat: 51.9, Lon: 4.1},
		Boundary: []geo.Point{{Lat: 51.9, Lon: 4.1}, {Lat: 51.9, Lon: 4.2}, {Lat: 52, Lon: 4.2}},
	}
	b, err := json.Marshal(in)
	is.NoErr(err)
	is.True(strings.Contains(string(b), `"boundary":[[4.1,51.9],[4.2,51.9],[4.2,52]]`))

	var out Facility
	is.NoErr(json.Unmarshal(b, &out))
	is.Equal(out, in)
}

func TestLoadFacilities(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "facilities.json")
	is.NoErr(os.WriteFile(path, []byte(facilitiesJSON), 0o644))

	fs, err := LoadFacilities(path)
	is.NoErr(err)
	is.Equal(len(fs), 2)

	_, err = LoadFacilities(filepath.Join(t.TempDir(), "missing.json"))
	is.True(err != nil)
}
