package sequencer

import (
	"errors"
	"fmt"
)

// FaultKind classifies why the loop halted.
type FaultKind int

const (
	// FaultActuator means an actuator rejected or could not confirm a level change.
	FaultActuator FaultKind = iota + 1
	// FaultDelay means the delay provider failed or returned early.
	FaultDelay
)

// String returns a short name for the fault kind.
func (k FaultKind) String() string {
	switch k {
	case FaultActuator:
		return "actuator"
	case FaultDelay:
		return "delay"
	default:
		return fmt.Sprintf("fault(%d)", int(k))
	}
}

var (
	// ErrStopped is wrapped by the error Run returns when the context is canceled.
	ErrStopped = errors.New("sequencer stopped")
	// ErrHalted is returned by Run on a sequencer that has already halted.
	ErrHalted = errors.New("sequencer halted")
)

// Fault is an unrecoverable halt of the control loop.
type Fault struct {
	// Kind classifies the fault.
	Kind FaultKind
	// Phase is the index of the phase during which the fault occurred.
	Phase int
	// PhaseName is the name of that phase.
	PhaseName string
	// Cycle is the cycle counter at the time of the fault.
	Cycle uint64
	// Err is the underlying error.
	Err error
}

// Error implements error.
func (f *Fault) Error() string {
	return fmt.Sprintf("%s fault in phase %d (%s), cycle %d: %v", f.Kind, f.Phase, f.PhaseName, f.Cycle, f.Err)
}

// Unwrap returns the underlying error.
func (f *Fault) Unwrap() error {
	return f.Err
}
