// Package imaging provides the raster operations used to find parking spaces
// in aerial tiles.
//
// The detectors in package detection compose these steps: grayscale
// conversion, Gaussian blur, Canny edges, adaptive thresholding and binary
// morphology. Annotate renders detection results back onto a tile for review.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Every function that returns
// an *image.Gray returns one whose bounds start at the origin, so results can
// be indexed directly regardless of the input's bounds.
//
// # Binary Images
//
// Binary images are *image.Gray with foreground at 255 and background at 0.
//
// # Thread Safety
//
// Operations are stateless and never modify their inputs; they can be called
// concurrently.
package imaging
