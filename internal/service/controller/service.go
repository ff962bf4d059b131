package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/oshokin/laminator/internal/bank"
	"github.com/oshokin/laminator/internal/clock"
	"github.com/oshokin/laminator/internal/config"
	"github.com/oshokin/laminator/internal/domain/actuator"
	"github.com/oshokin/laminator/internal/domain/schedule"
	"github.com/oshokin/laminator/internal/hardware"
	"github.com/oshokin/laminator/internal/hardware/periph"
	"github.com/oshokin/laminator/internal/hardware/sim"
	"github.com/oshokin/laminator/internal/logger"
	repository "github.com/oshokin/laminator/internal/repository/snapshot"
	"github.com/oshokin/laminator/internal/sequencer"
	"github.com/oshokin/laminator/internal/service/guard"
)

// Options controls the controller process and configuration.
type Options struct {
	// ConfigPath specifies a settings YAML file; empty uses the embedded configuration.
	ConfigPath string
	// SnapshotFile overrides the configured snapshot path.
	SnapshotFile string
}

// errOptionsRequired is returned when Run is called without options.
var errOptionsRequired = errors.New("options must be provided")

// Run loads the configuration, takes ownership of the outputs and runs the
// sequencer until ctx is canceled or a fault halts it. Cancellation returns nil.
func Run(ctx context.Context, opts *Options) error {
	if opts == nil {
		return errOptionsRequired
	}

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "laminator")

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if err = logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}

	runID := xid.New().String()
	ctx = logger.WithKV(ctx, "run_id", runID)

	// Only a hardware backend needs exclusive access across processes.
	if cfg.Backend == config.BackendPeriph {
		if err = guard.EnsureSingleInstance(); err != nil {
			return fmt.Errorf("check single instance: %w", err)
		}
	}

	provider, err := clock.New(cfg.Delay)
	if err != nil {
		return fmt.Errorf("create delay provider: %w", err)
	}

	chip, err := openChip(cfg, provider)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}

	b, err := configureBank(ctx, chip, cfg)
	if err != nil {
		return fmt.Errorf("configure actuators: %w", err)
	}

	sched, err := cfg.BuildSchedule()
	if err != nil {
		return fmt.Errorf("build schedule: %w", err)
	}

	seq, err := sequencer.New(b, sched, provider,
		sequencer.WithRunID(runID),
		sequencer.WithObserver(sequencer.ObserverFunc(reportCycle)),
	)
	if err != nil {
		return fmt.Errorf("create sequencer: %w", err)
	}

	repo := repository.NewFileRepository(cfg.SnapshotFile)

	logger.InfoKV(ctx, "Laminator starting",
		"backend", cfg.Backend,
		"delay", cfg.Delay,
		"actuators", b.Len(),
		"phases", sched.Len(),
		"snapshot_file", cfg.SnapshotFile,
	)

	runErr := seq.Run(sequencerContext(ctx, cfg.SequencerLogLevel))

	if err = repo.Save(ctx, seq.Status()); err != nil {
		logger.ErrorKV(ctx, "Failed to write snapshot", "error", err)
	}

	if errors.Is(runErr, sequencer.ErrStopped) {
		logger.Info(ctx, "Laminator stopped")

		return nil
	}

	// Outputs keep their last commanded levels after a halt.
	logger.ErrorKV(ctx, "Laminator halted, outputs hold their last levels", "levels", seq.Status().Levels)

	return runErr
}

// Summary describes a validated configuration.
type Summary struct {
	// Config is the validated configuration.
	Config *config.Config
	// Schedule is the compiled schedule.
	Schedule *schedule.Schedule
}

// Validate loads the configuration and compiles the schedule without touching hardware.
func Validate(opts *Options) (*Summary, error) {
	if opts == nil {
		return nil, errOptionsRequired
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	sched, err := cfg.BuildSchedule()
	if err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}

	return &Summary{
		Config:   cfg,
		Schedule: sched,
	}, nil
}

func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.SnapshotFile != "" {
		cfg.SnapshotFile = opts.SnapshotFile
	}

	return cfg, nil
}

//nolint:ireturn // The backend is chosen by configuration.
func openChip(cfg *config.Config, provider clock.Provider) (hardware.Chip, error) {
	switch cfg.Backend {
	case config.BackendSim:
		return sim.NewChip(cfg.Lines(), sim.WithClock(provider.Now)), nil
	case config.BackendPeriph:
		return periph.Open()
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

// configureBank binds every configured role in declared order.
func configureBank(ctx context.Context, chip hardware.Chip, cfg *config.Config) (*bank.Bank, error) {
	b, err := bank.New(chip)
	if err != nil {
		return nil, err
	}

	for _, a := range cfg.Actuators {
		spec := hardware.LineSpec{
			Name:      a.Line,
			ActiveLow: a.ActiveLow,
			Verify:    a.Verify,
		}

		bound, err := b.Configure(actuator.Role(a.Role), spec)
		if err != nil {
			return nil, err
		}

		logger.DebugKV(ctx, "Actuator bound", "role", bound.Role(), "line", bound.Line())
	}

	return b, nil
}

// sequencerContext gives the control loop its own log level.
func sequencerContext(ctx context.Context, level string) context.Context {
	lvl, ok := logger.ParseLogLevel(level)
	if !ok {
		return ctx
	}

	return logger.ToContext(ctx, logger.FromContext(ctx).WithOptions(logger.WithLevel(lvl)))
}

// reportCycle logs the start of every cycle.
func reportCycle(ctx context.Context, status *schedule.Status) {
	if status.Phase != 0 {
		return
	}

	logger.InfoKV(ctx, "Cycle started", "cycle", status.Cycle)
}
