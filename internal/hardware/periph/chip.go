package periph

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/oshokin/laminator/internal/domain/actuator"
	"github.com/oshokin/laminator/internal/hardware"
)

// PinResolver looks up a GPIO pin by name. gpioreg.ByName is the production resolver.
type PinResolver func(name string) gpio.PinIO

// Chip hands out periph.io GPIO pins as hardware lines.
type Chip struct {
	// resolve finds pins by name.
	resolve PinResolver
	// claimed tracks the real names of pins already handed out.
	claimed map[string]struct{}
	// mu protects claimed.
	mu sync.Mutex
}

// Open initializes the host drivers and returns a chip backed by the GPIO registry.
func Open() (*Chip, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	return NewChip(gpioreg.ByName), nil
}

// NewChip returns a chip that resolves pins with the provided resolver.
func NewChip(resolve PinResolver) *Chip {
	return &Chip{
		resolve: resolve,
		claimed: make(map[string]struct{}),
	}
}

// Claim resolves the pin, configures it as an output at the inactive level
// and hands it out. A pin can be claimed once, under any of its aliases.
//
//nolint:ireturn // Chip implementations return the hardware.Line interface.
func (c *Chip) Claim(spec hardware.LineSpec) (hardware.Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pin := c.resolve(spec.Name)
	if pin == nil {
		return nil, fmt.Errorf("%s: %w", spec.Name, hardware.ErrLineUnavailable)
	}

	key := realPin(pin).Name()
	if _, ok := c.claimed[key]; ok {
		return nil, fmt.Errorf("%s (%s): %w", spec.Name, key, hardware.ErrLineBound)
	}

	l := &line{
		pin:       pin,
		activeLow: spec.ActiveLow,
		verify:    spec.Verify,
	}

	if err := l.Write(actuator.Off); err != nil {
		return nil, fmt.Errorf("configure %s as output: %w", spec.Name, err)
	}

	c.claimed[key] = struct{}{}

	return l, nil
}

// realPin follows alias wrappers down to the registered pin.
//
//nolint:ireturn // Pins are only known through gpio.PinIO.
func realPin(pin gpio.PinIO) gpio.PinIO {
	for {
		alias, ok := pin.(gpio.RealPin)
		if !ok {
			return pin
		}

		next := alias.Real()
		if next == nil {
			return pin
		}

		pin = next
	}
}

// line is a claimed GPIO output.
type line struct {
	// pin is the underlying periph.io pin.
	pin gpio.PinIO
	// activeLow inverts the electrical level.
	activeLow bool
	// verify enables read-back after each write.
	verify bool
}

func (l *line) Name() string {
	return l.pin.Name()
}

// Write drives the pin and, when verification is enabled, confirms it by reading back.
func (l *line) Write(level actuator.Level) error {
	want := gpio.Level(hardware.Physical(level, l.activeLow))

	if err := l.pin.Out(want); err != nil {
		return fmt.Errorf("drive %s %s: %w", l.pin.Name(), level, err)
	}

	if !l.verify {
		return nil
	}

	if got := l.pin.Read(); got != want {
		return fmt.Errorf("%s read back %s after %s: %w", l.pin.Name(), got, want, hardware.ErrNotConfirmed)
	}

	return nil
}
