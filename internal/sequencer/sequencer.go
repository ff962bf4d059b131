package sequencer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/oshokin/laminator/internal/bank"
	"github.com/oshokin/laminator/internal/clock"
	"github.com/oshokin/laminator/internal/domain/schedule"
	"github.com/oshokin/laminator/internal/logger"
)

// Observer is notified after each phase has been fully applied. It runs on the
// control loop inside the phase hold, so it must return quickly.
type Observer interface {
	PhaseApplied(ctx context.Context, status *schedule.Status)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, status *schedule.Status)

// PhaseApplied calls f.
func (f ObserverFunc) PhaseApplied(ctx context.Context, status *schedule.Status) {
	f(ctx, status)
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithObserver registers an observer for applied phases.
func WithObserver(o Observer) Option {
	return func(s *Sequencer) {
		s.observer = o
	}
}

// WithRunID tags the status with a run identifier.
func WithRunID(id string) Option {
	return func(s *Sequencer) {
		s.status.RunID = id
	}
}

var (
	// errBankRequired is returned when New is called without a bank.
	errBankRequired = errors.New("actuator bank must be provided")
	// errScheduleRequired is returned when New is called without a schedule.
	errScheduleRequired = errors.New("schedule must be provided")
	// errClockRequired is returned when New is called without a delay provider.
	errClockRequired = errors.New("delay provider must be provided")
)

// Sequencer drives an actuator bank through a cyclic schedule.
type Sequencer struct {
	// bank holds the actuators, applied in bank order.
	bank *bank.Bank
	// schedule is the cyclic list of phases.
	schedule *schedule.Schedule
	// clock supplies time and blocking waits.
	clock clock.Provider
	// observer is optional.
	observer Observer
	// index is the current phase index.
	index int
	// cycle counts completed passes over the schedule.
	cycle uint64
	// status is the diagnostic state, updated by the loop only.
	status *schedule.Status
}

// New validates the schedule against the bank and the delay floor of provider
// and returns a sequencer positioned at phase 0.
func New(b *bank.Bank, s *schedule.Schedule, provider clock.Provider, opts ...Option) (*Sequencer, error) {
	switch {
	case b == nil:
		return nil, errBankRequired
	case s == nil:
		return nil, errScheduleRequired
	case provider == nil:
		return nil, errClockRequired
	}

	if err := s.Validate(b.Roles(), provider.MinDuration()); err != nil {
		return nil, fmt.Errorf("validate schedule: %w", err)
	}

	seq := &Sequencer{
		bank:     b,
		schedule: s,
		clock:    provider,
		status: &schedule.Status{
			Levels: b.Levels(),
		},
	}

	for _, opt := range opts {
		opt(seq)
	}

	return seq, nil
}

// Run executes the schedule until a fault occurs or ctx is canceled.
// Phase 0 is applied immediately. The context is checked only between phases,
// so a phase is never left partially applied by cancellation.
func (s *Sequencer) Run(ctx context.Context) error {
	if s.status.Halted {
		return ErrHalted
	}

	ctx = logger.WithName(ctx, "sequencer")

	logger.InfoKV(ctx, "Sequencer started",
		"run_id", s.status.RunID,
		"phases", s.schedule.Len(),
		"actuators", s.bank.Len(),
		"period", s.schedule.Period().String(),
	)

	for {
		if err := ctx.Err(); err != nil {
			s.halt(nil)
			logger.InfoKV(ctx, "Sequencer stopped at phase boundary", "phase", s.index, "cycle", s.cycle)

			return fmt.Errorf("%w: %w", ErrStopped, err)
		}

		phase := s.schedule.Phase(s.index)

		if err := s.apply(&phase); err != nil {
			return s.fail(ctx, FaultActuator, &phase, err)
		}

		// The hold is measured from the last actuator write.
		applied := s.clock.Now()

		logger.DebugKV(ctx, "Phase applied", "phase", s.index, "name", phase.Name, "cycle", s.cycle)

		if s.observer != nil {
			s.observer.PhaseApplied(ctx, s.status.Clone())
		}

		if err := s.hold(ctx, phase.Duration, applied); err != nil {
			return s.fail(ctx, FaultDelay, &phase, err)
		}

		s.advance()
	}
}

// Status returns a snapshot of the diagnostic state.
// It must not be called concurrently with Run; use an Observer instead.
func (s *Sequencer) Status() *schedule.Status {
	return s.status.Clone()
}

// apply commands the phase level to every actuator in bank order.
// Every actuator is set even after a failure; the errors are combined.
func (s *Sequencer) apply(phase *schedule.Phase) error {
	var errs error

	for _, a := range s.bank.Actuators() {
		level, _ := phase.Level(a.Role())

		if err := s.bank.Set(a, level); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	s.status.Phase = s.index
	s.status.PhaseName = phase.Name
	s.status.Cycle = s.cycle
	s.status.Levels = s.bank.Levels()
	s.status.UpdatedAt = s.clock.Now()

	return errs
}

// hold waits out what is left of d since applied. Waits shorter than the
// provider floor are rounded up to it.
func (s *Sequencer) hold(ctx context.Context, d time.Duration, applied time.Time) error {
	remaining := d - s.clock.Now().Sub(applied)
	if remaining <= 0 {
		logger.WarnKV(ctx, "Phase hold elapsed before wait", "phase", s.index, "overrun", (-remaining).String())

		return nil
	}

	return s.clock.Wait(max(remaining, s.clock.MinDuration()))
}

func (s *Sequencer) advance() {
	s.index = s.schedule.Next(s.index)
	if s.index == 0 {
		s.cycle++
	}
}

func (s *Sequencer) fail(ctx context.Context, kind FaultKind, phase *schedule.Phase, err error) error {
	fault := &Fault{
		Kind:      kind,
		Phase:     s.index,
		PhaseName: phase.Name,
		Cycle:     s.cycle,
		Err:       err,
	}

	s.halt(fault)

	logger.ErrorKV(ctx, "Sequencer halted",
		"kind", kind.String(),
		"phase", s.index,
		"name", phase.Name,
		"cycle", s.cycle,
		"error", err,
	)

	return fault
}

func (s *Sequencer) halt(fault *Fault) {
	s.status.Halted = true
	s.status.UpdatedAt = s.clock.Now()

	if fault != nil {
		s.status.Fault = fault.Error()
	}
}
