package actuator

import (
	"errors"
	"fmt"
	"strings"
)

// Role identifies an actuator by what it drives, e.g. "heater_center".
type Role string

// Level is the logical output level of an actuator.
type Level uint8

const (
	// Off is the inactive level. Freshly claimed lines start here.
	Off Level = iota
	// On is the active level.
	On
)

// ErrInvalidLevel is returned when a level string cannot be parsed.
var ErrInvalidLevel = errors.New("invalid level")

// ParseLevel converts a configuration value to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "1", "high", "true":
		return On, nil
	case "off", "0", "low", "false":
		return Off, nil
	default:
		return Off, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// String returns "on" or "off".
func (l Level) String() string {
	if l == On {
		return "on"
	}

	return "off"
}

// Invert returns the opposite level.
func (l Level) Invert() Level {
	if l == On {
		return Off
	}

	return On
}
