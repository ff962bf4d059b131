// Package clock provides the time source and blocking waits used by the
// sequencer.
//
// Every Provider documents a minimum reliable delay. Delays shorter than
// MinReliable (14µs) were observed to produce erroneous results on the target
// hardware, so providers refuse them instead of silently truncating. A wait
// that returns before the requested time has elapsed is reported as an error:
// a skipped delay could turn a heater-on phase into a continuous-on fault.
package clock
