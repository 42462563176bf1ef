package estimate

import (
	"fmt"
	"math"

	"github.com/ironsheep/truck-parking-mcp/internal/geo"
)

// Footprint is the ground size of one parking space.
type Footprint struct {
	WidthM  float64 `mapstructure:"width_m" json:"width_m"`
	LengthM float64 `mapstructure:"length_m" json:"length_m"`
}

func (f Footprint) AreaM2() float64 {
	return f.WidthM * f.LengthM
}

// Vehicle kinds a facility can be laid out for.
const (
	KindTruck = "truck"
	KindVan   = "van"
)

// Config tunes the Estimator.
type Config struct {
	// MaxCells caps the spaces generated for one boundary.
	MaxCells int `mapstructure:"max_cells"`
	// Efficiency is the share of a boundary's area assumed usable for
	// parking when capacity has to be derived from area alone.
	Efficiency float64   `mapstructure:"efficiency"`
	Truck      Footprint `mapstructure:"truck"`
	Van        Footprint `mapstructure:"van"`
}

func DefaultConfig() Config {
	return Config{
		MaxCells:   200,
		Efficiency: 0.5,
		Truck:      Footprint{WidthM: 4.0, LengthM: 15.0},
		Van:        Footprint{WidthM: 2.5, LengthM: 5.0},
	}
}

func (c Config) Validate() error {
	if c.MaxCells <= 0 {
		return fmt.Errorf("max_cells must be positive, got %d", c.MaxCells)
	}
	if c.Efficiency <= 0 || c.Efficiency > 1 {
		return fmt.Errorf("efficiency must be in (0, 1], got %v", c.Efficiency)
	}
	for name, fp := range map[string]Footprint{KindTruck: c.Truck, KindVan: c.Van} {
		if fp.WidthM <= 0 || fp.LengthM <= 0 {
			return fmt.Errorf("%s footprint must be positive, got %.2fx%.2f", name, fp.WidthM, fp.LengthM)
		}
	}
	return nil
}

// Estimator fills facility boundaries with grid-estimated spaces.
type Estimator struct {
	cfg Config
}

func New(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Footprint returns the space size for a vehicle kind. Anything but "van"
// gets the truck footprint.
func (e *Estimator) Footprint(kind string) Footprint {
	if kind == KindVan {
		return e.cfg.Van
	}
	return e.cfg.Truck
}

// Capacity works out how many spaces to place in one boundary. It prefers
// the boundary's own capacity, then an even share of the facility total
// over areaCount boundaries, and finally the usable share of areaM2 divided
// by the footprint. The result never exceeds MaxCells.
func (e *Estimator) Capacity(areaCapacity, facilityTotal, areaCount int, areaM2 float64, fp Footprint) int {
	capacity := areaCapacity
	if capacity <= 0 && facilityTotal > 0 && areaCount > 0 {
		capacity = facilityTotal / areaCount
	}
	if capacity <= 0 && areaM2 > 0 && fp.AreaM2() > 0 {
		capacity = int(math.Floor(areaM2 * e.cfg.Efficiency / fp.AreaM2()))
	}
	return min(max(capacity, 0), e.cfg.MaxCells)
}

// Estimate drains the boundary's grid until it has min(capacity, MaxCells)
// spaces. A non-positive capacity asks for as many cells as the grid holds,
// still capped at MaxCells.
func (e *Estimator) Estimate(boundary []geo.Point, capacity int, fp Footprint, rotation *float64) ([]geo.SpacePolygon, error) {
	g, err := NewGrid(boundary, fp, rotation)
	if err != nil {
		return nil, err
	}

	limit := capacity
	if limit <= 0 {
		limit = g.Rows() * g.Cols()
	}
	limit = min(limit, e.cfg.MaxCells)

	spaces := make([]geo.SpacePolygon, 0, limit)
	if limit == 0 {
		return spaces, nil
	}
	for s := range g.Cells() {
		spaces = append(spaces, s)
		if len(spaces) >= limit {
			break
		}
	}
	return spaces, nil
}
