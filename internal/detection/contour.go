package detection

import (
	"image"
)

// findContours groups the foreground pixels of a binary image into
// 8-connected components and returns the outermost ones with at least
// minPixels pixels.
//
// A component lying inside a hole of another component, such as a space
// drawn within a lot outline, is dropped. Only a component's outer extent
// matters downstream, so the pixels of each component are returned as-is;
// holes are ignored by the hull step.
func findContours(bin *image.Gray, minPixels int) [][]Point {
	bounds := bin.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	outside := outerBackground(bin, width, height)
	visited := make([]bool, width*height)
	contours := make([][]Point, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if visited[y*width+x] || !isSet(bin, x, y) {
				continue
			}
			contour := floodFill(bin, visited, x, y, width, height)
			if len(contour) >= minPixels && touchesOutside(contour, outside, width, height) {
				contours = append(contours, contour)
			}
		}
	}

	return contours
}

// outerBackground marks the background pixels 4-connected to the image
// border. Background left unmarked sits in a hole of some component.
func outerBackground(bin *image.Gray, width, height int) []bool {
	outside := make([]bool, width*height)
	stack := make([]Point, 0, 2*(width+height))
	for x := 0; x < width; x++ {
		stack = append(stack, Point{X: x, Y: 0}, Point{X: x, Y: height - 1})
	}
	for y := 0; y < height; y++ {
		stack = append(stack, Point{X: 0, Y: y}, Point{X: width - 1, Y: y})
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		i := p.Y*width + p.X
		if outside[i] || isSet(bin, p.X, p.Y) {
			continue
		}
		outside[i] = true
		stack = append(stack,
			Point{X: p.X + 1, Y: p.Y}, Point{X: p.X - 1, Y: p.Y},
			Point{X: p.X, Y: p.Y + 1}, Point{X: p.X, Y: p.Y - 1})
	}
	return outside
}

// touchesOutside reports whether a component reaches the image border or
// borders outer background.
func touchesOutside(contour []Point, outside []bool, width, height int) bool {
	for _, p := range contour {
		if p.X == 0 || p.Y == 0 || p.X == width-1 || p.Y == height-1 {
			return true
		}
		if outside[p.Y*width+p.X+1] || outside[p.Y*width+p.X-1] ||
			outside[(p.Y+1)*width+p.X] || outside[(p.Y-1)*width+p.X] {
			return true
		}
	}
	return false
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large contours. Uses 8-connectivity (includes diagonal neighbors).
func floodFill(bin *image.Gray, visited []bool, startX, startY, width, height int) []Point {
	contour := make([]Point, 0, 64)
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		i := p.Y*width + p.X
		if visited[i] || !isSet(bin, p.X, p.Y) {
			continue
		}

		visited[i] = true
		contour = append(contour, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}

	return contour
}

// contourShape reduces a pixel component to its minimum-area rectangle and
// the area enclosed by its outer boundary.
func contourShape(points []Point) (shape, bool) {
	hull := convexHull(rowExtremes(points))
	if len(hull) < 3 {
		return shape{}, false
	}
	return shape{rect: minAreaRect(hull), area: polygonArea(hull)}, true
}

func isSet(bin *image.Gray, x, y int) bool {
	b := bin.Bounds()
	return bin.Pix[bin.PixOffset(b.Min.X+x, b.Min.Y+y)] != 0
}
