package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/laminator/internal/domain/actuator"
)

var testRoles = []actuator.Role{"pump_main", "heater_center"}

// TestNew_RejectsEmptyAndNonPositive verifies construction-time invariants.
func TestNew_RejectsEmptyAndNonPositive(t *testing.T) {
	t.Parallel()

	_, err := New()
	require.ErrorIs(t, err, ErrEmptySchedule)

	_, err = New(Uniform("on", actuator.On, 0, testRoles...))
	require.ErrorIs(t, err, ErrInvalidDuration)
}

// TestSchedule_WrapsCyclically checks Phase and Next wrap around the end.
func TestSchedule_WrapsCyclically(t *testing.T) {
	t.Parallel()

	s, err := New(
		Uniform("a", actuator.On, time.Millisecond, testRoles...),
		Uniform("b", actuator.Off, 2*time.Millisecond, testRoles...),
		Uniform("c", actuator.On, 3*time.Millisecond, testRoles...),
	)
	require.NoError(t, err)

	require.Equal(t, 3, s.Len())
	require.Equal(t, 6*time.Millisecond, s.Period())

	for i := range 10 {
		require.Equal(t, []string{"a", "b", "c"}[i%3], s.Phase(i).Name)
	}

	require.Equal(t, 1, s.Next(0))
	require.Equal(t, 0, s.Next(2))
}

// TestSchedule_PhaseIsCopied ensures callers cannot mutate stored phases.
func TestSchedule_PhaseIsCopied(t *testing.T) {
	t.Parallel()

	s, err := New(Uniform("on", actuator.On, time.Millisecond, testRoles...))
	require.NoError(t, err)

	p := s.Phase(0)
	p.Levels["pump_main"] = actuator.Off

	stored := s.Phase(0)
	level, ok := stored.Level("pump_main")
	require.True(t, ok)
	require.Equal(t, actuator.On, level)
}

// TestSchedule_Validate covers the floor boundary and role coverage rules.
func TestSchedule_Validate(t *testing.T) {
	t.Parallel()

	floor := 14 * time.Microsecond

	atFloor, err := New(Uniform("on", actuator.On, floor, testRoles...))
	require.NoError(t, err)
	require.NoError(t, atFloor.Validate(testRoles, floor))

	below, err := New(Uniform("on", actuator.On, floor-time.Microsecond, testRoles...))
	require.NoError(t, err)
	require.ErrorIs(t, below.Validate(testRoles, floor), ErrBelowFloor)

	unknown, err := New(Uniform("on", actuator.On, time.Millisecond, "pump_main", "heater_center", "fan"))
	require.NoError(t, err)
	require.ErrorIs(t, unknown.Validate(testRoles, floor), ErrUnknownRole)

	missing, err := New(Uniform("on", actuator.On, time.Millisecond, "pump_main"))
	require.NoError(t, err)
	require.ErrorIs(t, missing.Validate(testRoles, floor), ErrMissingRole)

	var empty *Schedule
	require.ErrorIs(t, empty.Validate(testRoles, floor), ErrEmptySchedule)
}

// TestStatusClone verifies the level map is deep-copied and nil is handled.
func TestStatusClone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*Status)(nil).Clone())

	s := &Status{
		RunID:  "run",
		Phase:  1,
		Levels: map[actuator.Role]actuator.Level{"pump_main": actuator.On},
	}

	c := s.Clone()
	require.Equal(t, s, c)

	c.Levels["pump_main"] = actuator.Off
	require.Equal(t, actuator.On, s.Levels["pump_main"])
}
