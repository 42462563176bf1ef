package detection

import (
	"math"
	"testing"
)

func blockPoints(x1, y1, x2, y2 int) []Point {
	pts := make([]Point, 0)
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			pts = append(pts, Point{X: x, Y: y})
		}
	}
	return pts
}

func TestRowExtremes(t *testing.T) {
	pts := rowExtremes(blockPoints(0, 0, 9, 4))
	if len(pts) != 10 {
		t.Errorf("got %d points, want 2 per row (10)", len(pts))
	}

	single := rowExtremes([]Point{{X: 3, Y: 1}})
	if len(single) != 1 {
		t.Errorf("single pixel row: got %d points, want 1", len(single))
	}
}

func TestConvexHull(t *testing.T) {
	pts := append(blockPoints(0, 0, 10, 10), Point{X: 5, Y: 5})

	hull := convexHull(pts)
	if len(hull) != 4 {
		t.Fatalf("hull of a square: got %d vertices, want 4: %v", len(hull), hull)
	}
	if area := polygonArea(hull); area != 100 {
		t.Errorf("hull area: got %v, want 100", area)
	}
}

func TestConvexHull_Degenerate(t *testing.T) {
	if got := convexHull([]Point{{X: 1, Y: 1}, {X: 2, Y: 2}}); len(got) != 2 {
		t.Errorf("two points: got %d, want 2", len(got))
	}
	line := convexHull([]Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}})
	if len(line) != 2 {
		t.Errorf("collinear points: got %d hull vertices, want 2", len(line))
	}
	if _, ok := contourShape([]Point{{X: 0, Y: 0}, {X: 1, Y: 0}}); ok {
		t.Error("two-pixel contour should not produce a shape")
	}
}

func TestMinAreaRect_AxisAligned(t *testing.T) {
	hull := convexHull(rowExtremes(blockPoints(0, 0, 9, 29)))

	r := minAreaRect(hull)
	if math.Abs(r.Width-30) > 1e-9 || math.Abs(r.Height-10) > 1e-9 {
		t.Errorf("size: got %.2fx%.2f, want 30x10", r.Width, r.Height)
	}
	if angleDiff(r.Angle, 90) > 1e-6 {
		t.Errorf("angle: got %.2f, want 90", r.Angle)
	}
	if math.Abs(r.CenterX-5) > 1e-9 || math.Abs(r.CenterY-15) > 1e-9 {
		t.Errorf("center: got (%.2f, %.2f), want (5, 15)", r.CenterX, r.CenterY)
	}
}

func TestMinAreaRect_Diagonal(t *testing.T) {
	// a 45 degree bar: rows shift right by one pixel each
	pts := make([]Point, 0)
	for i := 0; i < 60; i++ {
		for w := 0; w < 6; w++ {
			pts = append(pts, Point{X: i + w, Y: i})
		}
	}

	r := minAreaRect(convexHull(rowExtremes(pts)))
	if angleDiff(r.Angle, 45) > 1 {
		t.Errorf("angle: got %.2f, want ~45", r.Angle)
	}
	if r.Aspect() < 5 {
		t.Errorf("aspect: got %.2f, want a long thin rectangle", r.Aspect())
	}
}
