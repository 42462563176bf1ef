// Package classify assigns a vehicle type to a parking space from its
// ground dimensions, using dimension bands derived from Dutch (CROW) and EU
// parking standards, and totals the resulting capacity across facilities.
package classify
