package imaging

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// BlurSigma5x5 is the Gaussian sigma matching a 5x5 smoothing kernel.
const BlurSigma5x5 = 1.1

// Grayscale converts img to an 8-bit luminance image whose bounds start at
// the origin, regardless of img's own bounds.
func Grayscale(img image.Image) *image.Gray {
	return toGray(effect.Grayscale(img))
}

// Blur applies a Gaussian blur of the given sigma.
func Blur(gray *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		return gray
	}
	return toGray(imaging.Blur(gray, sigma))
}

// Preprocess is the grayscale-then-blur step shared by the detectors.
func Preprocess(img image.Image, sigma float64) *image.Gray {
	return Blur(Grayscale(img), sigma)
}

// Resize scales img to exactly width x height.
func Resize(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// toGray copies any image into an origin-based *image.Gray.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return g
	}
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
