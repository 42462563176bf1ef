package imaging

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestAnnotate(t *testing.T) {
	src := createInMemoryImage(100, 100, color.RGBA{0, 0, 0, 255})

	marks := []Mark{{
		Corners: []image.Point{{20, 40}, {80, 40}, {80, 60}, {20, 60}},
		Color:   color.RGBA{0xef, 0x44, 0x44, 0xff},
		Label:   "#1",
	}}

	out := Annotate(src, marks, "Detected: 1 spaces")

	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds: got %v, want %v", out.Bounds(), src.Bounds())
	}

	edge := out.RGBAAt(50, 60)
	if edge.R != 0xef || edge.G != 0x44 {
		t.Errorf("outline colour: got %v, want #ef4444", edge)
	}

	if src.RGBAAt(50, 60) != (color.RGBA{0, 0, 0, 255}) {
		t.Error("source image was modified")
	}

	lit := 0
	for y := 10; y < 24; y++ {
		for x := 10; x < 100; x++ {
			if out.RGBAAt(x, y).R > 128 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("banner text was not drawn")
	}
}

func TestAnnotateSkipsDegenerateMarks(t *testing.T) {
	src := createInMemoryImage(20, 20, color.RGBA{0, 0, 0, 255})

	out := Annotate(src, []Mark{{Corners: []image.Point{{1, 1}}}}, "")
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if out.RGBAAt(x, y) != (color.RGBA{0, 0, 0, 255}) {
				t.Fatalf("pixel (%d,%d) changed", x, y)
			}
		}
	}
}

func TestAnnotateDefaultsToGrey(t *testing.T) {
	src := createInMemoryImage(40, 40, color.RGBA{0, 0, 0, 255})

	out := Annotate(src, []Mark{{Corners: []image.Point{{5, 20}, {35, 20}}}}, "")
	if got := out.RGBAAt(20, 20); got != (color.RGBA{107, 114, 128, 255}) {
		t.Errorf("outline without colour: got %v, want grey", got)
	}
}

func TestEncodeAndSave(t *testing.T) {
	img := createInMemoryImage(8, 8, color.RGBA{1, 2, 3, 255})

	s, err := EncodePNGBase64(img)
	if err != nil {
		t.Fatalf("EncodePNGBase64 failed: %v", err)
	}
	if s == "" {
		t.Error("empty base64 output")
	}

	path := filepath.Join(t.TempDir(), "tile.png")
	if err := SavePNG(path, img); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if _, info, err := Decode(data); err != nil || info.Format != "png" {
		t.Errorf("saved file is not a png: %v", err)
	}
}
