// Package geo provides the small-area geodesy used by the parking estimator.
//
// All coordinates are WGS84 decimal degrees. Distances are converted with a
// flat-earth approximation of 111320 meters per degree of latitude and
// 111320·cos(latitude) meters per degree of longitude. This is accurate to a
// fraction of a percent for the few-hundred-meter spans a parking facility
// covers, and degrades near the poles, where longitude conversion is rejected.
//
// # Coordinate Order
//
// Point stores latitude and longitude by name. Anything that leaves this
// package as GeoJSON or an orb geometry uses [longitude, latitude] order, and
// polygon rings are explicitly closed (first point repeated as last).
//
// # Pixel Projection
//
// Projector maps between raster pixels and geographic coordinates for a tile
// fetched over a known bounding box. Image rows grow downward while latitude
// grows upward, so pixel row 0 is the box's MaxLat and row Height is MinLat.
//
// # Errors
//
//   - ErrPolarLatitude: longitude scale requested at |lat| >= MaxLatitude
//   - ErrDegenerateGeometry: fewer than three distinct boundary points, a
//     zero-area rectangle, or an empty bounding box
package geo
