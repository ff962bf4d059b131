package hardware

import (
	"errors"

	"github.com/oshokin/laminator/internal/domain/actuator"
)

var (
	// ErrLineUnavailable is returned when the requested physical line does not exist.
	ErrLineUnavailable = errors.New("line unavailable")
	// ErrLineBound is returned when the requested line is already claimed.
	ErrLineBound = errors.New("line already bound")
	// ErrNotConfirmed is returned when a written level cannot be read back.
	ErrNotConfirmed = errors.New("level change not confirmed")
)

// LineSpec describes how to claim a physical output line.
type LineSpec struct {
	// Name is the backend-specific line name, e.g. "GPIO17".
	Name string
	// ActiveLow inverts the physical level: On drives the line low.
	ActiveLow bool
	// Verify reads the line back after every write.
	Verify bool
}

// Line is an exclusively owned digital output.
type Line interface {
	Name() string
	Write(level actuator.Level) error
}

// Chip hands out Line handles. Each line can be claimed once.
type Chip interface {
	Claim(spec LineSpec) (Line, error)
}

// Physical returns the electrical level (true for high) for a logical level.
func Physical(level actuator.Level, activeLow bool) bool {
	if activeLow {
		level = level.Invert()
	}

	return level == actuator.On
}
