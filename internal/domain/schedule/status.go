package schedule

import (
	"maps"
	"time"

	"github.com/oshokin/laminator/internal/domain/actuator"
)

// Status is the diagnostic state of a sequencer run.
type Status struct {
	// RunID tags the controller run that produced this status.
	RunID string
	// Phase is the index of the current phase.
	Phase int
	// PhaseName is the name of the current phase.
	PhaseName string
	// Cycle counts completed passes over the schedule.
	Cycle uint64
	// Levels holds the last successfully commanded level per actuator.
	Levels map[actuator.Role]actuator.Level
	// UpdatedAt is when the status last changed.
	UpdatedAt time.Time
	// Halted reports whether the loop stopped.
	Halted bool
	// Fault describes why the loop halted, empty on a clean stop.
	Fault string
}

// Clone returns a copy of the status to avoid leaking internal references.
func (s *Status) Clone() *Status {
	if s == nil {
		return nil
	}

	cloned := *s
	cloned.Levels = maps.Clone(s.Levels)

	return &cloned
}
