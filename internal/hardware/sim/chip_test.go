package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/laminator/internal/domain/actuator"
	"github.com/oshokin/laminator/internal/hardware"
)

var errTestWrite = errors.New("test write error")

// TestChip_Claim verifies unknown and double claims are rejected.
func TestChip_Claim(t *testing.T) {
	t.Parallel()

	c := NewChip([]string{"GPIO17"})

	l, err := c.Claim(hardware.LineSpec{Name: "GPIO17"})
	require.NoError(t, err)
	require.Equal(t, "GPIO17", l.Name())

	_, err = c.Claim(hardware.LineSpec{Name: "GPIO17"})
	require.ErrorIs(t, err, hardware.ErrLineBound)

	_, err = c.Claim(hardware.LineSpec{Name: "GPIO99"})
	require.ErrorIs(t, err, hardware.ErrLineUnavailable)
}

// TestChip_WritesAreRecorded checks levels, counts and the write log.
func TestChip_WritesAreRecorded(t *testing.T) {
	t.Parallel()

	c := NewChip([]string{"a", "b"})

	a, err := c.Claim(hardware.LineSpec{Name: "a"})
	require.NoError(t, err)

	b, err := c.Claim(hardware.LineSpec{Name: "b"})
	require.NoError(t, err)

	require.NoError(t, a.Write(actuator.On))
	require.NoError(t, b.Write(actuator.On))
	require.NoError(t, a.Write(actuator.Off))

	require.Equal(t, actuator.Off, c.Level("a"))
	require.Equal(t, actuator.On, c.Level("b"))
	require.Equal(t, 2, c.Count("a"))
	require.Equal(t, 1, c.Count("b"))

	writes := c.Writes()
	require.Len(t, writes, 3)
	require.Equal(t, "a", writes[0].Line)
	require.Equal(t, "b", writes[1].Line)
	require.Equal(t, actuator.Off, writes[2].Level)
	require.Equal(t, map[string]actuator.Level{"a": actuator.Off, "b": actuator.On}, c.Levels())
}

// TestChip_FaultInjection checks FailAfter lets n writes through and keeps the last level.
func TestChip_FaultInjection(t *testing.T) {
	t.Parallel()

	c := NewChip([]string{"a"})

	a, err := c.Claim(hardware.LineSpec{Name: "a"})
	require.NoError(t, err)

	c.FailAfter("a", 1, errTestWrite)

	require.NoError(t, a.Write(actuator.On))
	require.ErrorIs(t, a.Write(actuator.Off), errTestWrite)
	require.Equal(t, actuator.On, c.Level("a"))
	require.Equal(t, 1, c.Count("a"))
}
