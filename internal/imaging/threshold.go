package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
)

// AdaptiveThreshold binarizes gray against a Gaussian-weighted local mean.
//
// A pixel is foreground when it is brighter than mean-c over a blockSize
// neighborhood, or, with invert set, when it is not. blockSize should be odd;
// block 11 corresponds to a blur radius of 5.
func AdaptiveThreshold(gray *image.Gray, blockSize int, c float64, invert bool) *image.Gray {
	b := gray.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	if b.Empty() {
		return dst
	}

	radius := float64(blockSize / 2)
	if radius < 1 {
		radius = 1
	}
	mean := blur.Gaussian(gray, radius)
	mb := mean.Bounds()

	on, off := uint8(255), uint8(0)
	if invert {
		on, off = off, on
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			src := float64(gray.Pix[gray.PixOffset(b.Min.X+x, b.Min.Y+y)])
			local := float64(mean.Pix[mean.PixOffset(mb.Min.X+x, mb.Min.Y+y)])
			v := off
			if src > local-c {
				v = on
			}
			dst.Pix[dst.PixOffset(x, y)] = v
		}
	}
	return dst
}
