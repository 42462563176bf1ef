// Package estimate places parking spaces inside a facility boundary when no
// space could be detected in imagery.
//
// The boundary's bounding box is divided into footprint-sized cells, one
// column per space width and one row per space length, and cells whose
// center falls inside the boundary are emitted in row-major order. Cells may
// be turned to match a detected row orientation. Every emitted space is
// flagged Estimated.
//
// Containment is checked on the cell center only, so a cell near the edge
// can extend past the boundary.
package estimate
