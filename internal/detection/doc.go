// Package detection finds parking spaces and parking-row orientation in
// aerial imagery.
//
// # Shape Detection
//
// ShapeDetector looks for closed outlines whose minimum-area rotated
// rectangle has the proportions and size of a single parking space at the
// tile's ground resolution:
//
//  1. Edge Detection: grayscale, Gaussian blur and Canny (package imaging)
//  2. Closing: dilate then erode so painted outlines form connected rings
//  3. Contours: outermost 8-connected components of the closed edge image;
//     anything inside another outline's hole is skipped
//  4. Rectangles: convex hull plus rotating calipers per component
//  5. Gates: long/short aspect ratio and enclosed area relative to the
//     expected footprint
//  6. Size: kept rectangles lose the growth the closing added
//
// # Orientation Detection
//
// OrientationDetector binarizes the tile with an adaptive threshold, extracts
// straight segments with a progressive probabilistic Hough transform (each
// edge pixel belongs to at most one segment), histograms their angles into
// fixed-width bins and returns the fullest bin's center, snapped to a
// canonical angle when one is close.
//
// # Backends
//
// The contour and segment steps are pure Go by default. Building with the
// opencv tag swaps them for gocv's FindContours, MinAreaRect and
// HoughLinesP; everything else is shared.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Angles are degrees in [0,180), from +X toward +Y
//
// # Limitations
//
// Both detectors are heuristics tuned for 25cm orthophotos of paved lots.
// Worn paint, shadows and parked vehicles produce misses and false
// positives; results carry no accuracy guarantee.
package detection
