// Package tiles fetches orthophoto tiles from a WMS 1.3.0 imagery service.
//
// A Fetcher turns a point (plus coverage) or a facility boundary (plus
// buffer) into a bounding box, issues a GetMap request with CRS=EPSG:4326 and
// decodes the PNG or JPEG response into a Tile. Remote requests are spaced by
// a shared rate limiter; payloads are cached by request URL in memory or in
// Valkey.
//
// Any failure to obtain a decodable image is reported as ErrImageUnavailable,
// which callers treat as "no imagery" rather than a fatal error.
package tiles
