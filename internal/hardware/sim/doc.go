// Package sim implements an in-memory hardware.Chip.
//
// The chip records every write with a timestamp and supports fault injection
// per line, which makes it the backend for dry runs and sequencing tests.
package sim
