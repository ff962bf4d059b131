// Package sequencer implements the actuator sequencing loop.
//
// A Sequencer walks a cyclic schedule forever: it applies every phase to all
// actuators of its bank in bank order, holds the phase for its duration and
// advances to the next one, wrapping after the last. The loop has no terminal
// phase. It ends only when
//   - an actuator write or a delay fails, reported as a *Fault, or
//   - the context is canceled, observed at phase boundaries only and reported
//     as an error wrapping ErrStopped.
//
// The loop runs on the caller's goroutine and owns the bank exclusively while
// it runs; nothing else may write actuator levels.
package sequencer
