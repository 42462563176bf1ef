package detection

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/truck-parking-mcp/internal/imaging"
)

// OrientationParams tunes OrientationDetector.
type OrientationParams struct {
	BlurSigma   float64     `mapstructure:"blur_sigma"`
	BlockSize   int         `mapstructure:"block_size"`
	C           float64     `mapstructure:"c"`
	CannyLow    int         `mapstructure:"canny_low"`
	CannyHigh   int         `mapstructure:"canny_high"`
	Hough       HoughParams `mapstructure:"hough"`
	BinDegrees  float64     `mapstructure:"bin_degrees"`
	SnapDegrees float64     `mapstructure:"snap_degrees"`
	SnapAngles  []float64   `mapstructure:"snap_angles"`
}

func DefaultOrientationParams() OrientationParams {
	return OrientationParams{
		BlurSigma:   imaging.BlurSigma5x5,
		BlockSize:   11,
		C:           2,
		CannyLow:    50,
		CannyHigh:   150,
		Hough:       HoughParams{Threshold: 50, MinLength: 30, MaxGap: 10},
		BinDegrees:  5,
		SnapDegrees: 10,
		SnapAngles:  []float64{0, 45, 90, 135},
	}
}

// OrientationDetector estimates the dominant direction of the painted lines
// in a parking area.
type OrientationDetector struct {
	params OrientationParams
}

func NewOrientationDetector(params OrientationParams) *OrientationDetector {
	return &OrientationDetector{params: params}
}

// Segments returns the line segments found in img.
func (d *OrientationDetector) Segments(img image.Image) []Segment {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	p := d.params
	gray := imaging.Preprocess(img, p.BlurSigma)
	bin := imaging.AdaptiveThreshold(gray, p.BlockSize, p.C, true)
	edges := imaging.Canny(bin, p.CannyLow, p.CannyHigh)
	return extractSegments(edges, p.Hough)
}

// Detect returns the dominant line angle in degrees within [0,180), snapped
// to the nearest canonical angle when close enough. ok is false when no
// segments were found, which is distinct from an angle of 0.
func (d *OrientationDetector) Detect(img image.Image) (angle float64, ok bool) {
	segs := d.Segments(img)
	if len(segs) == 0 {
		return 0, false
	}
	angles := make([]float64, len(segs))
	for i, s := range segs {
		angles[i] = s.Angle
	}
	angle, ok = DominantAngle(angles, d.params.BinDegrees)
	if !ok {
		return 0, false
	}
	return SnapAngle(angle, d.params.SnapDegrees, d.params.SnapAngles), true
}

// DominantAngle histograms angles (degrees, folded into [0,180)) into bins of
// binDegrees and returns the center of the fullest bin. Ties go to the lowest
// bin.
func DominantAngle(angles []float64, binDegrees float64) (float64, bool) {
	if len(angles) == 0 || binDegrees <= 0 {
		return 0, false
	}

	bins := int(math.Ceil(180 / binDegrees))
	dividers := make([]float64, bins+1)
	for i := range dividers {
		dividers[i] = float64(i) * binDegrees
	}
	// the last bin may be partial; stretch it past 180 so every folded angle fits
	dividers[bins] = math.Max(dividers[bins], 180) + 1e-9

	folded := make([]float64, len(angles))
	for i, a := range angles {
		folded[i] = foldAngle(a)
	}
	sort.Float64s(folded)

	counts := stat.Histogram(nil, dividers, folded, nil)
	best := floats.MaxIdx(counts)
	return dividers[best] + binDegrees/2, true
}

// SnapAngle moves angle onto the nearest canonical angle within threshold
// degrees, treating 0 and 180 as the same direction.
func SnapAngle(angle, threshold float64, canonical []float64) float64 {
	angle = foldAngle(angle)
	best, bestDist := angle, math.Inf(1)
	for _, c := range canonical {
		d := math.Abs(angle - foldAngle(c))
		d = math.Min(d, 180-d)
		if d <= threshold && d < bestDist {
			best, bestDist = foldAngle(c), d
		}
	}
	return best
}

func foldAngle(a float64) float64 {
	a = math.Mod(a, 180)
	if a < 0 {
		a += 180
	}
	if a >= 180 {
		a = 0
	}
	return a
}
