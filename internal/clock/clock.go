package clock

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinReliable is the shortest delay the providers guarantee to hold.
const MinReliable = 14 * time.Microsecond

const (
	// ModeSleep selects the timer-backed Sleeper.
	ModeSleep = "sleep"
	// ModeBusy selects the spinning BusyWaiter.
	ModeBusy = "busy"
)

var (
	// ErrBelowFloor is returned for waits shorter than the provider floor.
	ErrBelowFloor = errors.New("delay below minimum reliable duration")
	// ErrEarlyReturn is returned when a wait finished before the requested duration.
	ErrEarlyReturn = errors.New("delay returned early")
	// ErrUnknownMode is returned by New for unsupported provider modes.
	ErrUnknownMode = errors.New("unknown delay mode")
)

// Provider supplies a monotonic time source and a blocking wait.
type Provider interface {
	// Now returns the current time; only used for diagnostics.
	Now() time.Time
	// Wait blocks the caller for at least d.
	Wait(d time.Duration) error
	// MinDuration returns the shortest delay Wait can reliably hold.
	MinDuration() time.Duration
}

// New returns the provider for the given mode.
//
//nolint:ireturn // Callers pick the implementation by configuration.
func New(mode string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeSleep:
		return NewSleeper(), nil
	case ModeBusy:
		return NewBusyWaiter(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// Sleeper waits using the runtime timer.
type Sleeper struct {
	// sleep is the blocking primitive, time.Sleep in production.
	sleep func(time.Duration)
}

// NewSleeper returns a timer-backed provider.
func NewSleeper() *Sleeper {
	return &Sleeper{sleep: time.Sleep}
}

// Now returns the current time.
func (s *Sleeper) Now() time.Time {
	return time.Now()
}

// MinDuration returns MinReliable.
func (s *Sleeper) MinDuration() time.Duration {
	return MinReliable
}

// Wait sleeps for d and verifies on the monotonic clock that d has elapsed.
func (s *Sleeper) Wait(d time.Duration) error {
	if d < MinReliable {
		return fmt.Errorf("wait %v: %w", d, ErrBelowFloor)
	}

	start := time.Now()
	s.sleep(d)

	return checkElapsed(start, d)
}

// BusyWaiter spins on the monotonic clock. It burns a CPU but does not depend
// on timer resolution.
type BusyWaiter struct{}

// NewBusyWaiter returns a spinning provider.
func NewBusyWaiter() *BusyWaiter {
	return &BusyWaiter{}
}

// Now returns the current time.
func (b *BusyWaiter) Now() time.Time {
	return time.Now()
}

// MinDuration returns MinReliable.
func (b *BusyWaiter) MinDuration() time.Duration {
	return MinReliable
}

// Wait spins until d has elapsed.
func (b *BusyWaiter) Wait(d time.Duration) error {
	if d < MinReliable {
		return fmt.Errorf("wait %v: %w", d, ErrBelowFloor)
	}

	start := time.Now()
	for time.Since(start) < d { //nolint:revive // Spinning is the point.
	}

	return checkElapsed(start, d)
}

func checkElapsed(start time.Time, d time.Duration) error {
	if elapsed := time.Since(start); elapsed < d {
		return fmt.Errorf("waited %v of %v: %w", elapsed, d, ErrEarlyReturn)
	}

	return nil
}
