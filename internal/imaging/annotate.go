package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Mark is one outlined polygon on an annotated tile.
type Mark struct {
	// Corners in pixel coordinates. The outline is closed automatically.
	Corners []image.Point
	// Color of the outline, typically the vehicle type colour.
	Color color.Color
	// Label is drawn next to the first corner when non-empty.
	Label string
}

// Annotate draws marks over a copy of img and prints banner in the top-left
// corner. The source image is not modified.
func Annotate(img image.Image, marks []Mark, banner string) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	labelColor := color.RGBA{255, 255, 255, 255}
	bgColor := color.RGBA{0, 0, 0, 180}

	for _, m := range marks {
		if len(m.Corners) < 2 {
			continue
		}
		c := m.Color
		if c == nil {
			c = color.RGBA{107, 114, 128, 255}
		}
		for i := range m.Corners {
			a := m.Corners[i]
			b := m.Corners[(i+1)%len(m.Corners)]
			drawLine(result, a, b, c, 2)
		}
		if m.Label != "" {
			drawLabel(result, m.Corners[0].X, m.Corners[0].Y-14, m.Label, labelColor, bgColor)
		}
	}

	if banner != "" {
		drawLabel(result, 10, 10, banner, labelColor, bgColor)
	}
	return result
}

// EncodePNGBase64 encodes img as a base64 PNG for JSON transport.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SavePNG writes img to path. The format follows the file extension.
func SavePNG(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// drawLine draws a straight segment of the given thickness.
func drawLine(img *image.RGBA, a, b image.Point, c color.Color, thickness int) {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		steps = 1
	}
	bounds := img.Bounds()
	half := thickness / 2
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := a.X + int(math.Round(dx*t))
		y := a.Y + int(math.Round(dy*t))
		for oy := -half; oy < thickness-half; oy++ {
			for ox := -half; ox < thickness-half; ox++ {
				p := image.Pt(x+ox, y+oy)
				if p.In(bounds) {
					img.Set(p.X, p.Y, c)
				}
			}
		}
	}
}

// drawLabel draws text on a filled background box whose top-left is (x, y).
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(fg), Face: face}

	labelWidth := d.MeasureString(text).Ceil()
	labelHeight := face.Metrics().Height.Ceil()

	box := image.Rect(x-2, y-1, x+labelWidth+2, y+labelHeight+1).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Over)

	d.Dot = fixed.P(x, y+face.Metrics().Ascent.Ceil())
	d.DrawString(text)
}
