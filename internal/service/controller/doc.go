// Package controller is the startup routine of the laminator.
//
// Run claims every output line once, hands the bound actuators to a sequencer
// and runs it on the calling goroutine. It is the only place where hardware
// ownership is acquired. The final status of the run is always written to the
// snapshot file, including when the loop halts on a fault.
package controller
