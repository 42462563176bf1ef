package detection

import (
	"math"
	"sort"
)

// rowExtremes keeps the leftmost and rightmost pixel of every row. The convex
// hull of a pixel set only depends on these.
func rowExtremes(points []Point) []Point {
	type span struct{ min, max int }
	rows := make(map[int]span)
	for _, p := range points {
		s, ok := rows[p.Y]
		if !ok {
			rows[p.Y] = span{p.X, p.X}
			continue
		}
		if p.X < s.min {
			s.min = p.X
		}
		if p.X > s.max {
			s.max = p.X
		}
		rows[p.Y] = s
	}

	out := make([]Point, 0, len(rows)*2)
	for y, s := range rows {
		out = append(out, Point{X: s.min, Y: y})
		if s.max != s.min {
			out = append(out, Point{X: s.max, Y: y})
		}
	}
	return out
}

func cross(o, a, b Point) int {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// convexHull returns the hull in counter-clockwise order (Andrew's monotone
// chain). Collinear points are dropped.
func convexHull(points []Point) []Point {
	if len(points) < 3 {
		return append([]Point(nil), points...)
	}

	pts := append([]Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	hull := make([]Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// polygonArea is the shoelace area of a simple polygon.
func polygonArea(poly []Point) float64 {
	var sum int
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// minAreaRect finds the smallest rotated rectangle enclosing a convex hull
// using rotating calipers: the optimal rectangle has one side collinear with
// a hull edge.
//
// Hull vertices are pixel centers, so one pixel is added to each side to
// cover the pixels' own extent and the center is shifted by half a pixel.
func minAreaRect(hull []Point) PixelRect {
	best := PixelRect{}
	bestArea := math.Inf(1)

	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		ex, ey := float64(b.X-a.X), float64(b.Y-a.Y)
		n := math.Hypot(ex, ey)
		if n == 0 {
			continue
		}
		ux, uy := ex/n, ey/n
		vx, vy := -uy, ux

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			u := float64(p.X)*ux + float64(p.Y)*uy
			v := float64(p.X)*vx + float64(p.Y)*vy
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}

		area := (maxU - minU) * (maxV - minV)
		if area < bestArea-1e-9 {
			bestArea = area
			cu, cv := (minU+maxU)/2, (minV+maxV)/2
			best = PixelRect{
				CenterX: cu*ux + cv*vx + 0.5,
				CenterY: cu*uy + cv*vy + 0.5,
				Width:   maxU - minU + 1,
				Height:  maxV - minV + 1,
				Angle:   math.Atan2(uy, ux) * 180 / math.Pi,
			}
		}
	}

	return normalizeRect(best)
}
