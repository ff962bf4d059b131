package sim

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/oshokin/laminator/internal/domain/actuator"
	"github.com/oshokin/laminator/internal/hardware"
)

// Write is a single recorded level change.
type Write struct {
	// Line is the name of the written line.
	Line string
	// Level is the logical level that was written.
	Level actuator.Level
	// At is when the write happened.
	At time.Time
}

// fault describes an injected write failure.
type fault struct {
	// after is the number of successful writes allowed before failing.
	after int
	// err is returned once the fault triggers.
	err error
}

// Chip is an in-memory chip with a fixed set of line names.
type Chip struct {
	// mu protects all fields below; lines are written from the control loop
	// and inspected from other goroutines in tests.
	mu sync.Mutex
	// known lists the names that can be claimed.
	known map[string]struct{}
	// claimed tracks names already handed out.
	claimed map[string]struct{}
	// levels holds the current logical level per line.
	levels map[string]actuator.Level
	// writes records every successful write in order.
	writes []Write
	// counts holds successful writes per line.
	counts map[string]int
	// faults holds injected failures per line.
	faults map[string]fault
	// now is the time source for write timestamps.
	now func() time.Time
}

// Option configures the simulated chip.
type Option func(*Chip)

// WithClock sets the time source used for write timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Chip) {
		if now != nil {
			c.now = now
		}
	}
}

// NewChip creates a chip exposing the provided line names.
func NewChip(lines []string, opts ...Option) *Chip {
	c := &Chip{
		known:   make(map[string]struct{}, len(lines)),
		claimed: make(map[string]struct{}, len(lines)),
		levels:  make(map[string]actuator.Level, len(lines)),
		counts:  make(map[string]int, len(lines)),
		faults:  make(map[string]fault),
		now:     time.Now,
	}

	for _, name := range lines {
		c.known[name] = struct{}{}
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Claim hands out the named line. Unknown and already claimed names fail.
//
//nolint:ireturn // Chip implementations return the hardware.Line interface.
func (c *Chip) Claim(spec hardware.LineSpec) (hardware.Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.known[spec.Name]; !ok {
		return nil, fmt.Errorf("%s: %w", spec.Name, hardware.ErrLineUnavailable)
	}

	if _, ok := c.claimed[spec.Name]; ok {
		return nil, fmt.Errorf("%s: %w", spec.Name, hardware.ErrLineBound)
	}

	c.claimed[spec.Name] = struct{}{}
	c.levels[spec.Name] = actuator.Off

	return &line{chip: c, name: spec.Name}, nil
}

// FailWrite makes every following write to the named line fail with err.
func (c *Chip) FailWrite(name string, err error) {
	c.FailAfter(name, 0, err)
}

// FailAfter lets n more writes to the named line succeed, then fails with err.
func (c *Chip) FailAfter(name string, n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.faults[name] = fault{after: n, err: err}
}

// Level returns the current logical level of the named line.
func (c *Chip) Level(name string) actuator.Level {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.levels[name]
}

// Levels returns a copy of the current level of every claimed line.
func (c *Chip) Levels() map[string]actuator.Level {
	c.mu.Lock()
	defer c.mu.Unlock()

	return maps.Clone(c.levels)
}

// Count returns the number of successful writes to the named line.
func (c *Chip) Count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counts[name]
}

// Writes returns a copy of the write log.
func (c *Chip) Writes() []Write {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.writes)
}

func (c *Chip) write(name string, level actuator.Level) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.faults[name]; ok {
		if f.after <= 0 {
			return fmt.Errorf("write %s: %w", name, f.err)
		}

		f.after--
		c.faults[name] = f
	}

	c.levels[name] = level
	c.counts[name]++
	c.writes = append(c.writes, Write{
		Line:  name,
		Level: level,
		At:    c.now(),
	})

	return nil
}

// line is a claimed simulated output.
type line struct {
	// chip owns the line state.
	chip *Chip
	// name is the claimed line name.
	name string
}

func (l *line) Name() string {
	return l.name
}

func (l *line) Write(level actuator.Level) error {
	return l.chip.write(l.name, level)
}
