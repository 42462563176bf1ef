// Package server implements the MCP (Model Context Protocol) server for the
// truck parking estimator.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Geometry:
//   - parking_bounding_box: Ground rectangle around a point, with its WMS URL
//   - parking_polygon_area: Area, centroid and grid capacity of an outline
//
// Imagery:
//   - parking_fetch_tile: Orthophoto around a point or covering an outline
//
// Detection:
//   - parking_detect_spaces: Space-shaped rectangles in an image, classified
//   - parking_detect_orientation: Dominant parking-row angle
//
// Estimation:
//   - parking_estimate_grid: Footprint grid clipped to an outline
//   - parking_classify_space: Vehicle type from dimensions
//
// Pipeline:
//   - parking_analyze_facility: Detection with grid fallback for one facility
//
// Coordinates in outlines are [lon, lat] pairs, the same order the batch
// facility files and the GeoJSON output use.
//
// # Image Caching
//
// Image paths are read through the configured tile cache, so repeated calls
// on the same file skip the disk. Fetched tiles share that cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// Logs go to stderr through zerolog; stdout carries only protocol messages.
package server
