package detection

import (
	"image"
	"math"
	"math/rand/v2"
)

// Segment is a detected straight line segment.
type Segment struct {
	Start  Point   `json:"start"`
	End    Point   `json:"end"`
	Length float64 `json:"length"`
	// Angle in degrees within [0,180).
	Angle float64 `json:"angle_degrees"`
}

// HoughParams tunes segment extraction.
type HoughParams struct {
	// Threshold is the minimum accumulator vote count for a line.
	Threshold int `mapstructure:"threshold"`
	// MinLength is the shortest segment reported, in pixels.
	MinLength int `mapstructure:"min_length"`
	// MaxGap is the longest run of missing edge pixels bridged within one
	// segment.
	MaxGap int `mapstructure:"max_gap"`
}

func newSegment(x1, y1, x2, y2 int) Segment {
	dx := float64(x2 - x1)
	dy := float64(y2 - y1)
	angle := math.Mod(math.Atan2(dy, dx)*180/math.Pi, 180)
	if angle < 0 {
		angle += 180
	}
	return Segment{
		Start:  Point{X: x1, Y: y1},
		End:    Point{X: x2, Y: y2},
		Length: math.Hypot(dx, dy),
		Angle:  angle,
	}
}

// houghSegments finds line segments in a binary edge image with a
// progressive probabilistic Hough transform.
//
// # Algorithm
//
//  1. Edge pixels are visited in a fixed pseudo-random order; each one votes
//     for all (rho, theta) lines through it, theta in 1 degree steps
//  2. When the best line through the pixel reaches Threshold votes, the line
//     is walked from the pixel in both directions over pixels lying exactly on
//     it, stopping after more than MaxGap consecutive misses
//  3. The walked pixels are removed from the edge map. If the walk spans at
//     least MinLength the segment is kept and its pixels' votes are withdrawn,
//     so no later line can reuse them
func houghSegments(edges *image.Gray, p HoughParams) []Segment {
	bounds := edges.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	const numAngles = 180
	cosT := make([]float64, numAngles)
	sinT := make([]float64, numAngles)
	for t := 0; t < numAngles; t++ {
		a := float64(t) * math.Pi / 180.0
		cosT[t], sinT[t] = math.Cos(a), math.Sin(a)
	}

	maxDist := int(math.Ceil(math.Hypot(float64(width), float64(height))))
	numRho := maxDist*2 + 1
	accumulator := make([]int, numRho*numAngles)

	mask := make([]bool, width*height)
	points := make([]int, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if isSet(edges, x, y) {
				mask[y*width+x] = true
				points = append(points, y*width+x)
			}
		}
	}
	if len(points) == 0 {
		return nil
	}

	rng := rand.New(rand.NewPCG(houghSeed, houghSeed))
	rng.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })

	cell := func(x, y, t int) int {
		rho := int(math.Round(float64(x)*cosT[t]+float64(y)*sinT[t])) + maxDist
		return rho*numAngles + t
	}
	voted := make([]bool, width*height)
	vote := func(x, y, delta int) {
		for t := 0; t < numAngles; t++ {
			accumulator[cell(x, y, t)] += delta
		}
	}

	segments := make([]Segment, 0)
	for _, idx := range points {
		if !mask[idx] {
			continue
		}
		x0, y0 := idx%width, idx/width
		vote(x0, y0, 1)
		voted[idx] = true

		best, theta := 0, 0
		for t := 0; t < numAngles; t++ {
			if v := accumulator[cell(x0, y0, t)]; v > best {
				best, theta = v, t
			}
		}
		if best < p.Threshold {
			continue
		}

		w := newLineWalk(x0, y0, -sinT[theta], cosT[theta], width, height)

		// Find how far the line runs each way from the seed.
		var ends [2]Point
		for k := range ends {
			ends[k] = Point{X: x0, Y: y0}
			gap := 0
			for step := 1; ; step++ {
				x, y, ok := w.at(k, step)
				if !ok {
					break
				}
				if mask[y*width+x] {
					gap = 0
					ends[k] = Point{X: x, Y: y}
				} else {
					gap++
					if gap > p.MaxGap {
						break
					}
				}
			}
		}

		seg := newSegment(ends[1].X, ends[1].Y, ends[0].X, ends[0].Y)
		good := seg.Length >= float64(p.MinLength)

		claim := func(x, y int) {
			i := y*width + x
			if !mask[i] {
				return
			}
			mask[i] = false
			if good && voted[i] {
				vote(x, y, -1)
				voted[i] = false
			}
		}
		claim(x0, y0)
		for k, end := range ends {
			if end.X == x0 && end.Y == y0 {
				continue
			}
			for step := 1; ; step++ {
				x, y, ok := w.at(k, step)
				if !ok {
					break
				}
				claim(x, y)
				if x == end.X && y == end.Y {
					break
				}
			}
		}

		if good {
			segments = append(segments, seg)
		}
	}
	return segments
}

// houghSeed fixes the visiting order so results are reproducible.
const houghSeed = 0x5eed

// lineWalk steps along a line one pixel at a time on its major axis.
type lineWalk struct {
	x0, y0        int
	dx, dy        float64
	width, height int
}

func newLineWalk(x0, y0 int, dx, dy float64, width, height int) lineWalk {
	if math.Abs(dx) >= math.Abs(dy) {
		dx, dy = math.Copysign(1, dx), dy/math.Abs(dx)
	} else {
		dx, dy = dx/math.Abs(dy), math.Copysign(1, dy)
	}
	return lineWalk{x0: x0, y0: y0, dx: dx, dy: dy, width: width, height: height}
}

// at returns the pixel step pixels from the seed, forward for k == 0 and
// backward otherwise. ok is false outside the image.
func (w lineWalk) at(k, step int) (x, y int, ok bool) {
	s := float64(step)
	if k != 0 {
		s = -s
	}
	x = w.x0 + int(math.Round(s*w.dx))
	y = w.y0 + int(math.Round(s*w.dy))
	return x, y, x >= 0 && x < w.width && y >= 0 && y < w.height
}
