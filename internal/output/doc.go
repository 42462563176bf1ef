// Package output persists batch results: a GeoJSON FeatureCollection of
// classified spaces for map overlays, a JSON run summary, and annotated
// tiles.
package output
