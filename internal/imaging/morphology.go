package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Dilate grows the white regions of a binary image by one pixel per
// iteration.
func Dilate(bin *image.Gray, iterations int) *image.Gray {
	out := bin
	for i := 0; i < iterations; i++ {
		out = toGray(effect.Dilate(out, 1))
	}
	return out
}

// Erode shrinks the white regions of a binary image by one pixel per
// iteration.
func Erode(bin *image.Gray, iterations int) *image.Gray {
	out := bin
	for i := 0; i < iterations; i++ {
		out = toGray(effect.Erode(out, 1))
	}
	return out
}

// Close dilates then erodes, joining edge fragments into closed outlines.
func Close(bin *image.Gray, dilations, erosions int) *image.Gray {
	return Erode(Dilate(bin, dilations), erosions)
}
