package classify

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// VehicleType identifies the kind of vehicle a space is sized for.
type VehicleType string

const (
	CarVan        VehicleType = "car_van"
	StandardTruck VehicleType = "standard_truck"
	HeavyTruck    VehicleType = "heavy_truck"
	LargeTruck    VehicleType = "large_truck"
	LZV           VehicleType = "lzv"
	ParkingRow    VehicleType = "parking_row"
	Unknown       VehicleType = "unknown"
)

// Keys of Classification.EstimatedVehicles.
const (
	RowStandardTrucks = "standard_trucks"
	RowHeavyTrucks    = "heavy_trucks"
	RowLZV            = "lzv"
	RowCars           = "cars"
)

const (
	unknownLabel = "Unknown"
	unknownColor = "#6b7280"
)

// Range is an inclusive interval.
type Range struct {
	Min float64 `mapstructure:"min" json:"min"`
	Max float64 `mapstructure:"max" json:"max"`
}

// Contains reports whether Min <= v <= Max.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Band is the dimension envelope of one vehicle type.
type Band struct {
	Type   VehicleType `mapstructure:"type" json:"type"`
	Label  string      `mapstructure:"label" json:"label"`
	Color  string      `mapstructure:"color" json:"color"`
	Width  Range       `mapstructure:"width" json:"width_m"`
	Length Range       `mapstructure:"length" json:"length_m"`
	Area   Range       `mapstructure:"area" json:"area_m2"`
}

// RowUnits is the length in meters one vehicle of each kind takes up in a
// parking row.
type RowUnits struct {
	StandardTruck float64 `mapstructure:"standard_truck"`
	HeavyTruck    float64 `mapstructure:"heavy_truck"`
	LZV           float64 `mapstructure:"lzv"`
	Car           float64 `mapstructure:"car"`
}

// Config tunes the Classifier. Band order is significant: on equal
// confidence the earlier band wins.
type Config struct {
	Bands         []Band   `mapstructure:"bands"`
	MinConfidence float64  `mapstructure:"min_confidence"`
	RowLengthM    float64  `mapstructure:"row_length_m"`
	RowUnits      RowUnits `mapstructure:"row_units"`
}

// DefaultConfig returns the CROW/EU dimension bands.
func DefaultConfig() Config {
	return Config{
		Bands: []Band{
			{CarVan, "Car/Van", "#3b82f6", Range{2.0, 3.0}, Range{4.0, 6.0}, Range{8, 18}},
			{StandardTruck, "Standard Truck", "#ef4444", Range{3.5, 4.5}, Range{12.0, 20.0}, Range{42, 90}},
			{HeavyTruck, "Heavy Truck", "#f97316", Range{3.5, 5.0}, Range{18.0, 25.0}, Range{63, 125}},
			{LargeTruck, "Large Truck (Type C)", "#dc2626", Range{5.0, 8.0}, Range{25.0, 35.0}, Range{125, 280}},
			{LZV, "LZV Parking", "#7c2d12", Range{4.0, 6.0}, Range{30.0, 45.0}, Range{120, 270}},
			{ParkingRow, "Parking Row (Multiple Vehicles)", "#10b981", Range{3.0, 8.0}, Range{40.0, 100.0}, Range{120, 800}},
		},
		MinConfidence: 0.5,
		RowLengthM:    40,
		RowUnits: RowUnits{
			StandardTruck: 15,
			HeavyTruck:    20,
			LZV:           35,
			Car:           5,
		},
	}
}

// Validate checks that every band is well formed and every row unit is
// positive.
func (c Config) Validate() error {
	if len(c.Bands) == 0 {
		return fmt.Errorf("classifier has no bands")
	}
	seen := make(map[VehicleType]bool, len(c.Bands))
	for _, b := range c.Bands {
		if b.Type == "" || b.Type == Unknown {
			return fmt.Errorf("band %q: invalid vehicle type", b.Type)
		}
		if seen[b.Type] {
			return fmt.Errorf("band %q declared twice", b.Type)
		}
		seen[b.Type] = true
		for name, r := range map[string]Range{"width": b.Width, "length": b.Length, "area": b.Area} {
			if r.Min > r.Max {
				return fmt.Errorf("band %q: %s range %.2f > %.2f", b.Type, name, r.Min, r.Max)
			}
		}
		if _, err := colorful.Hex(b.Color); err != nil {
			return fmt.Errorf("band %q: color %q: %w", b.Type, b.Color, err)
		}
	}
	u := c.RowUnits
	if u.StandardTruck <= 0 || u.HeavyTruck <= 0 || u.LZV <= 0 || u.Car <= 0 {
		return fmt.Errorf("row units must be positive: %+v", u)
	}
	return nil
}

// Classification is the vehicle type verdict for one space.
type Classification struct {
	Type       VehicleType `json:"vehicle_type"`
	Label      string      `json:"vehicle_label"`
	Color      string      `json:"color"`
	Confidence float64     `json:"confidence"`

	IsParkingRow bool `json:"is_parking_row"`
	// EstimatedVehicles holds how many vehicles of each kind fit along the
	// row. Set only when IsParkingRow.
	EstimatedVehicles map[string]int `json:"estimated_vehicles,omitempty"`
}

// RGBA returns the display colour, grey when Color is malformed.
func (c Classification) RGBA() color.Color {
	cf, err := colorful.Hex(c.Color)
	if err != nil {
		cf, _ = colorful.Hex(unknownColor)
	}
	return cf
}

// Classifier matches space dimensions against vehicle bands.
type Classifier struct {
	cfg Config
}

func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

func (c *Classifier) Config() Config {
	return c.cfg
}

// Classify scores each band by how many of width, length and area fall in
// range, one third per check. Bands scoring above MinConfidence are
// candidates; the best scoring one wins, earlier bands winning ties. Width
// and length are swapped if needed so that width <= length.
//
// A space with no candidate is Unknown with zero confidence.
func (c *Classifier) Classify(widthM, lengthM, areaM2 float64) Classification {
	w, l := math.Min(widthM, lengthM), math.Max(widthM, lengthM)

	var best *Band
	bestScore := 0.0
	for i := range c.cfg.Bands {
		b := &c.cfg.Bands[i]
		passes := 0
		if b.Width.Contains(w) {
			passes++
		}
		if b.Length.Contains(l) {
			passes++
		}
		if b.Area.Contains(areaM2) {
			passes++
		}
		score := float64(passes) / 3
		if score <= c.cfg.MinConfidence {
			continue
		}
		if best == nil || score > bestScore {
			best, bestScore = b, score
		}
	}

	if best == nil {
		return Classification{Type: Unknown, Label: unknownLabel, Color: unknownColor}
	}

	out := Classification{
		Type:       best.Type,
		Label:      best.Label,
		Color:      best.Color,
		Confidence: math.Round(bestScore*100) / 100,
	}
	if l > c.cfg.RowLengthM {
		out.IsParkingRow = true
		out.EstimatedVehicles = c.RowEstimate(l)
	}
	return out
}

// RowEstimate returns how many whole vehicles of each kind fit along a row
// of the given length.
func (c *Classifier) RowEstimate(lengthM float64) map[string]int {
	u := c.cfg.RowUnits
	return map[string]int{
		RowStandardTrucks: int(lengthM / u.StandardTruck),
		RowHeavyTrucks:    int(lengthM / u.HeavyTruck),
		RowLZV:            int(lengthM / u.LZV),
		RowCars:           int(lengthM / u.Car),
	}
}
