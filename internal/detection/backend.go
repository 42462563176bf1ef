//go:build !opencv

package detection

import "image"

// Backend names the contour and Hough implementation compiled in.
const Backend = "go"

func extractShapes(bin *image.Gray, minPixels int) []shape {
	contours := findContours(bin, minPixels)
	shapes := make([]shape, 0, len(contours))
	for _, c := range contours {
		if s, ok := contourShape(c); ok {
			shapes = append(shapes, s)
		}
	}
	return shapes
}

func extractSegments(edges *image.Gray, p HoughParams) []Segment {
	return houghSegments(edges, p)
}
