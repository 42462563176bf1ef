package classify

import (
	"github.com/samber/lo"
)

// Entry is one classified space contributing to a Summary.
type Entry struct {
	Classification Classification
	AreaM2         float64
}

// TypeStat aggregates the spaces of one vehicle type.
type TypeStat struct {
	Count       int     `json:"count"`
	TotalAreaM2 float64 `json:"total_area"`
}

// Summary totals classified spaces across facilities.
type Summary struct {
	Types    map[VehicleType]TypeStat `json:"type_statistics"`
	Capacity map[string]int           `json:"estimated_capacity"`
}

// Summarize tallies entries by type and estimates overall capacity. Parking
// rows contribute their per-kind row estimates; single spaces count as one
// vehicle of their kind, heavy trucks counting toward standard trucks.
func Summarize(entries []Entry) Summary {
	groups := lo.GroupBy(entries, func(e Entry) VehicleType {
		return e.Classification.Type
	})
	types := lo.MapValues(groups, func(es []Entry, _ VehicleType) TypeStat {
		return TypeStat{
			Count:       len(es),
			TotalAreaM2: lo.SumBy(es, func(e Entry) float64 { return e.AreaM2 }),
		}
	})

	capacity := map[string]int{
		RowStandardTrucks: 0,
		RowHeavyTrucks:    0,
		RowLZV:            0,
		RowCars:           0,
	}
	for _, e := range entries {
		c := e.Classification
		if c.IsParkingRow {
			for k, n := range c.EstimatedVehicles {
				capacity[k] += n
			}
			continue
		}
		switch c.Type {
		case StandardTruck, HeavyTruck:
			capacity[RowStandardTrucks]++
		case LZV:
			capacity[RowLZV]++
		case CarVan:
			capacity[RowCars]++
		}
	}

	return Summary{Types: types, Capacity: capacity}
}

// Merge adds other into s.
func (s Summary) Merge(other Summary) Summary {
	out := Summary{
		Types:    lo.Assign(s.Types),
		Capacity: lo.Assign(s.Capacity),
	}
	if out.Types == nil {
		out.Types = map[VehicleType]TypeStat{}
	}
	if out.Capacity == nil {
		out.Capacity = map[string]int{}
	}
	for t, st := range other.Types {
		cur := out.Types[t]
		cur.Count += st.Count
		cur.TotalAreaM2 += st.TotalAreaM2
		out.Types[t] = cur
	}
	for k, n := range other.Capacity {
		out.Capacity[k] += n
	}
	return out
}
