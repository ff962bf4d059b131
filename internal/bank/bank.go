package bank

import (
	"errors"
	"fmt"
	"slices"

	"github.com/oshokin/laminator/internal/domain/actuator"
	"github.com/oshokin/laminator/internal/hardware"
)

var (
	// ErrRoleBound is returned when a role is configured twice.
	ErrRoleBound = errors.New("role already configured")
	// ErrForeignActuator is returned when Set is called with a handle from another bank.
	ErrForeignActuator = errors.New("actuator does not belong to this bank")
	// errChipRequired is returned when a bank is created without a chip.
	errChipRequired = errors.New("chip must be provided")
	// errRoleRequired is returned when a role is empty.
	errRoleRequired = errors.New("role must be provided")
)

// Actuator is a bound handle to one physical output.
type Actuator struct {
	// role is the logical identity of the output.
	role actuator.Role
	// line is the claimed hardware line.
	line hardware.Line
	// level is the last successfully commanded level.
	level actuator.Level
	// writes counts successful Set calls.
	writes int
	// owner is the bank that created the handle.
	owner *Bank
}

// Role returns the actuator role.
func (a *Actuator) Role() actuator.Role {
	return a.role
}

// Line returns the name of the bound hardware line.
func (a *Actuator) Line() string {
	return a.line.Name()
}

// Level returns the last successfully commanded level.
func (a *Actuator) Level() actuator.Level {
	return a.level
}

// Writes returns the number of successful Set calls.
func (a *Actuator) Writes() int {
	return a.writes
}

// WriteError reports a failed level change on one actuator.
type WriteError struct {
	// Role is the actuator that failed.
	Role actuator.Role
	// Level is the level that could not be applied.
	Level actuator.Level
	// Err is the underlying hardware error.
	Err error
}

// Error implements error.
func (e *WriteError) Error() string {
	return fmt.Sprintf("set %s %s: %v", e.Role, e.Level, e.Err)
}

// Unwrap returns the underlying hardware error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Bank is the set of outputs owned by one sequencer.
// It is not safe for concurrent use; a single control loop owns it.
type Bank struct {
	// chip hands out hardware lines.
	chip hardware.Chip
	// actuators are kept in configuration order.
	actuators []*Actuator
	// lines maps claimed line names to roles for collision reporting.
	lines map[string]actuator.Role
}

// New takes ownership of the chip and returns an empty bank.
func New(chip hardware.Chip) (*Bank, error) {
	if chip == nil {
		return nil, errChipRequired
	}

	return &Bank{
		chip:  chip,
		lines: make(map[string]actuator.Role),
	}, nil
}

// Configure binds role to the line described by spec.
// Failures are initialization faults: the caller must not start the loop.
func (b *Bank) Configure(role actuator.Role, spec hardware.LineSpec) (*Actuator, error) {
	if role == "" {
		return nil, errRoleRequired
	}

	if b.Find(role) != nil {
		return nil, fmt.Errorf("%s: %w", role, ErrRoleBound)
	}

	if owner, ok := b.lines[spec.Name]; ok {
		return nil, fmt.Errorf("%s: line %s held by %s: %w", role, spec.Name, owner, hardware.ErrLineBound)
	}

	line, err := b.chip.Claim(spec)
	if err != nil {
		return nil, fmt.Errorf("claim line for %s: %w", role, err)
	}

	a := &Actuator{
		role:  role,
		line:  line,
		level: actuator.Off,
		owner: b,
	}

	b.actuators = append(b.actuators, a)
	b.lines[spec.Name] = role

	return a, nil
}

// Set writes level to the actuator. The recorded level changes only on success.
func (b *Bank) Set(a *Actuator, level actuator.Level) error {
	if a == nil || a.owner != b {
		return ErrForeignActuator
	}

	if err := a.line.Write(level); err != nil {
		return &WriteError{
			Role:  a.role,
			Level: level,
			Err:   err,
		}
	}

	a.level = level
	a.writes++

	return nil
}

// Find returns the actuator bound to role, or nil.
func (b *Bank) Find(role actuator.Role) *Actuator {
	for _, a := range b.actuators {
		if a.role == role {
			return a
		}
	}

	return nil
}

// Actuators returns the actuators in configuration order.
func (b *Bank) Actuators() []*Actuator {
	return slices.Clone(b.actuators)
}

// Roles returns the configured roles in configuration order.
func (b *Bank) Roles() []actuator.Role {
	roles := make([]actuator.Role, 0, len(b.actuators))
	for _, a := range b.actuators {
		roles = append(roles, a.role)
	}

	return roles
}

// Levels returns the last commanded level of every actuator.
func (b *Bank) Levels() map[actuator.Role]actuator.Level {
	levels := make(map[actuator.Role]actuator.Level, len(b.actuators))
	for _, a := range b.actuators {
		levels[a.role] = a.level
	}

	return levels
}

// Len returns the number of configured actuators.
func (b *Bank) Len() int {
	return len(b.actuators)
}
