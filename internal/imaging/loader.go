package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
)

// ImageInfo describes a decoded raster.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder that accepted the payload: "png", "jpeg" or "gif".
	Format string `json:"format"`

	// SizeBytes is the encoded payload size.
	SizeBytes int `json:"size_bytes"`
}

// Decode decodes a PNG, JPEG or GIF payload.
//
// Imagery services report failures as XML documents with a 200 status, so
// any payload that no registered decoder accepts is an error here rather
// than a panic further down the pipeline.
func Decode(data []byte) (image.Image, *ImageInfo, error) {
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("failed to decode image: empty payload")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	return img, &ImageInfo{
		Width:     b.Dx(),
		Height:    b.Dy(),
		Format:    format,
		SizeBytes: len(data),
	}, nil
}
