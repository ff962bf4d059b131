// Package hardware defines the boundary between the controller and physical
// output lines.
//
// A Chip hands out exclusive Line handles by name. Backends live in
// subpackages: periph drives real GPIO through periph.io, sim keeps levels in
// memory for dry runs and tests.
package hardware
