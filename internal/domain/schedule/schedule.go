package schedule

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/oshokin/laminator/internal/domain/actuator"
)

// Phase is a single step of a schedule: levels to apply and how long to hold them.
type Phase struct {
	// Name is a human-readable label used in logs, e.g. "heat".
	Name string
	// Levels maps every actuator role to the level commanded in this phase.
	Levels map[actuator.Role]actuator.Level
	// Duration is how long the levels are held once applied.
	Duration time.Duration
}

// Uniform builds a phase that commands the same level to every listed role.
func Uniform(name string, level actuator.Level, duration time.Duration, roles ...actuator.Role) Phase {
	levels := make(map[actuator.Role]actuator.Level, len(roles))
	for _, role := range roles {
		levels[role] = level
	}

	return Phase{
		Name:     name,
		Levels:   levels,
		Duration: duration,
	}
}

// Level returns the level commanded to role and whether the phase defines one.
func (p *Phase) Level(role actuator.Role) (actuator.Level, bool) {
	level, ok := p.Levels[role]

	return level, ok
}

// Clone returns a copy of the phase with its own level map.
func (p *Phase) Clone() Phase {
	return Phase{
		Name:     p.Name,
		Levels:   maps.Clone(p.Levels),
		Duration: p.Duration,
	}
}

// Schedule is an ordered, non-empty, cyclic sequence of phases.
// It has no terminal phase: after the last one it wraps to the first.
type Schedule struct {
	phases []Phase
}

var (
	// ErrEmptySchedule is returned when a schedule has no phases.
	ErrEmptySchedule = errors.New("schedule has no phases")
	// ErrInvalidDuration is returned for non-positive phase durations.
	ErrInvalidDuration = errors.New("phase duration must be positive")
	// ErrBelowFloor is returned when a phase is shorter than the delay floor.
	ErrBelowFloor = errors.New("phase duration below minimum reliable delay")
	// ErrUnknownRole is returned when a phase references a role outside the bank.
	ErrUnknownRole = errors.New("phase references unknown actuator")
	// ErrMissingRole is returned when a phase leaves a bank actuator without a level.
	ErrMissingRole = errors.New("phase has no level for actuator")
)

// New creates a schedule from the provided phases. The phases are copied.
func New(phases ...Phase) (*Schedule, error) {
	if len(phases) == 0 {
		return nil, ErrEmptySchedule
	}

	copied := make([]Phase, 0, len(phases))
	for i := range phases {
		if phases[i].Duration <= 0 {
			return nil, fmt.Errorf("phase %d (%s): %w", i, phases[i].Name, ErrInvalidDuration)
		}

		copied = append(copied, phases[i].Clone())
	}

	return &Schedule{phases: copied}, nil
}

// Len returns the number of phases.
func (s *Schedule) Len() int {
	return len(s.phases)
}

// Phase returns the phase at index i, wrapping modulo the schedule length.
func (s *Schedule) Phase(i int) Phase {
	return s.phases[s.wrap(i)].Clone()
}

// Next returns the phase index following i.
func (s *Schedule) Next(i int) int {
	return s.wrap(i + 1)
}

// Period returns the total duration of one full cycle.
func (s *Schedule) Period() time.Duration {
	var total time.Duration
	for i := range s.phases {
		total += s.phases[i].Duration
	}

	return total
}

// Validate checks the schedule against the actuators that exist and the
// shortest delay the clock can hold. Durations below floor are rejected,
// never truncated.
func (s *Schedule) Validate(roles []actuator.Role, floor time.Duration) error {
	if s == nil || len(s.phases) == 0 {
		return ErrEmptySchedule
	}

	for i := range s.phases {
		phase := &s.phases[i]

		if phase.Duration < floor {
			return fmt.Errorf("phase %d (%s): %v < %v: %w", i, phase.Name, phase.Duration, floor, ErrBelowFloor)
		}

		for role := range phase.Levels {
			if !slices.Contains(roles, role) {
				return fmt.Errorf("phase %d (%s): %q: %w", i, phase.Name, role, ErrUnknownRole)
			}
		}

		for _, role := range roles {
			if _, ok := phase.Levels[role]; !ok {
				return fmt.Errorf("phase %d (%s): %q: %w", i, phase.Name, role, ErrMissingRole)
			}
		}
	}

	return nil
}

func (s *Schedule) wrap(i int) int {
	n := len(s.phases)

	return ((i % n) + n) % n
}
