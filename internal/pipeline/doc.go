// Package pipeline turns candidate facilities into classified parking
// spaces.
//
// For each facility the Analyzer fetches a tile around its location and
// looks for individual spaces. When none are found and the facility has a
// mapped boundary, the boundary is filled with grid-estimated spaces instead,
// turned to the row orientation seen in the boundary's own imagery. Every
// space is then classified by vehicle type.
//
// Batch runs the Analyzer over many facilities with a bounded number of
// workers. Missing imagery or bad geometry is recorded on the facility's
// record and never aborts the batch.
package pipeline
