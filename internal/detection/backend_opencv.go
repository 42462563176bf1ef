//go:build opencv

package detection

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Backend names the contour and Hough implementation compiled in.
const Backend = "opencv"

func extractShapes(bin *image.Gray, minPixels int) []shape {
	mat, err := gocv.ImageGrayToMatGray(bin)
	if err != nil {
		return nil
	}
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	shapes := make([]shape, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		pv := contours.At(i)
		if pv.Size() < 3 {
			continue
		}
		area := gocv.ContourArea(pv)
		if area < float64(minPixels) {
			continue
		}
		rr := gocv.MinAreaRect(pv)
		shapes = append(shapes, shape{
			rect: normalizeRect(PixelRect{
				CenterX: float64(rr.Center.X),
				CenterY: float64(rr.Center.Y),
				Width:   float64(rr.Width),
				Height:  float64(rr.Height),
				Angle:   rr.Angle,
			}),
			area: area,
		})
	}
	return shapes
}

func extractSegments(edges *image.Gray, p HoughParams) []Segment {
	mat, err := gocv.ImageGrayToMatGray(edges)
	if err != nil {
		return nil
	}
	defer mat.Close()

	lines := gocv.NewMat()
	defer lines.Close()

	gocv.HoughLinesPWithParams(mat, &lines, 1, float32(math.Pi/180), p.Threshold, float32(p.MinLength), float32(p.MaxGap))

	segments := make([]Segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		segments = append(segments, newSegment(int(v[0]), int(v[1]), int(v[2]), int(v[3])))
	}
	return segments
}
