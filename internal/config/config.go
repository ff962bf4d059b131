package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/laminator/internal/clock"
	"github.com/oshokin/laminator/internal/domain/actuator"
	"github.com/oshokin/laminator/internal/domain/schedule"
	"github.com/oshokin/laminator/internal/logger"
)

// Config holds the controller wiring and schedule.
type Config struct {
	// Backend selects the hardware backend: "periph" or "sim".
	Backend string `yaml:"backend"`
	// Delay selects the delay provider: "sleep" or "busy".
	Delay string `yaml:"delay"`
	// LogLevel is the global log level.
	LogLevel string `yaml:"log_level"`
	// SequencerLogLevel is the log level of the control loop logger.
	SequencerLogLevel string `yaml:"sequencer_log_level"`
	// SnapshotFile is where the last run status is written.
	SnapshotFile string `yaml:"snapshot_file"`
	// MinPhaseDuration is the shortest accepted phase; it cannot go below the delay floor.
	MinPhaseDuration time.Duration `yaml:"min_phase_duration"`
	// Actuators lists the outputs in application order.
	Actuators []Actuator `yaml:"actuators"`
	// Schedule lists the phases in execution order.
	Schedule []Phase `yaml:"schedule"`
}

// Actuator binds a role to a physical line.
type Actuator struct {
	// Role is the logical identity, e.g. "heater_center".
	Role string `yaml:"role"`
	// Line is the backend line name, e.g. "GPIO23".
	Line string `yaml:"line"`
	// ActiveLow inverts the electrical level.
	ActiveLow bool `yaml:"active_low,omitempty"`
	// Verify reads the line back after every write.
	Verify bool `yaml:"verify,omitempty"`
}

// Phase is one schedule step. All sets every actuator; Levels overrides per role.
type Phase struct {
	// Name labels the phase in logs.
	Name string `yaml:"name"`
	// Duration is how long the phase is held.
	Duration time.Duration `yaml:"duration"`
	// All is the level applied to every actuator not listed in Levels.
	All string `yaml:"all,omitempty"`
	// Levels maps roles to levels.
	Levels map[string]string `yaml:"levels,omitempty"`
}

// Overrides are operational settings read from the environment.
type Overrides struct {
	// Backend overrides Config.Backend.
	Backend string `env:"LAMINATOR_BACKEND"`
	// Delay overrides Config.Delay.
	Delay string `env:"LAMINATOR_DELAY"`
	// LogLevel overrides Config.LogLevel.
	LogLevel string `env:"LAMINATOR_LOG_LEVEL"`
	// SnapshotFile overrides Config.SnapshotFile.
	SnapshotFile string `env:"LAMINATOR_SNAPSHOT_FILE"`
}

const (
	// BackendPeriph drives Linux GPIO through periph.io.
	BackendPeriph = "periph"
	// BackendSim keeps levels in memory.
	BackendSim = "sim"

	// DefaultSnapshotFilename is the default path of the status snapshot.
	DefaultSnapshotFilename = "laminator-snapshot.json"

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600
)

//go:embed laminator.yaml
var defaultConfig []byte

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownBackend is returned for unsupported backends.
	errUnknownBackend = errors.New("unknown backend")
	// errUnknownDelay is returned for unsupported delay providers.
	errUnknownDelay = errors.New("unknown delay provider")
	// errUnknownLogLevel is returned for unsupported log levels.
	errUnknownLogLevel = errors.New("unknown log level")
	// errNoActuators is returned when no actuator is configured.
	errNoActuators = errors.New("at least one actuator must be configured")
	// errActuatorIncomplete is returned when role or line is missing.
	errActuatorIncomplete = errors.New("actuator needs role and line")
	// errDuplicateRole is returned when a role is listed twice.
	errDuplicateRole = errors.New("duplicate role")
	// errDuplicateLine is returned when a line is bound twice.
	errDuplicateLine = errors.New("duplicate line")
	// errFloorTooLow is returned when min_phase_duration is below the delay floor.
	errFloorTooLow = errors.New("min_phase_duration below delay floor")
	// errLevelMissing is returned when a phase leaves a role without a level.
	errLevelMissing = errors.New("phase has no level for role")
)

// Default returns the embedded build-time configuration.
func Default() (*Config, error) {
	return parse(defaultConfig)
}

// Load reads configuration from path, or the embedded default when path is
// empty, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	contents := defaultConfig

	if path != "" {
		var err error

		contents, err = os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	return parse(contents)
}

func parse(contents []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// ApplyEnv overlays LAMINATOR_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var o Overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.Backend != "" {
		cfg.Backend = o.Backend
	}

	if o.Delay != "" {
		cfg.Delay = o.Delay
	}

	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}

	if o.SnapshotFile != "" {
		cfg.SnapshotFile = o.SnapshotFile
	}

	return nil
}

// Validate fills defaults and checks the wiring and the schedule.
//
//nolint:cyclop // A flat list of checks reads better than helpers here.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.Backend == "" {
		cfg.Backend = BackendPeriph
	}

	if cfg.Backend != BackendPeriph && cfg.Backend != BackendSim {
		return fmt.Errorf("%w: %q", errUnknownBackend, cfg.Backend)
	}

	cfg.Delay = strings.ToLower(strings.TrimSpace(cfg.Delay))
	if cfg.Delay == "" {
		cfg.Delay = clock.ModeSleep
	}

	if cfg.Delay != clock.ModeSleep && cfg.Delay != clock.ModeBusy {
		return fmt.Errorf("%w: %q", errUnknownDelay, cfg.Delay)
	}

	for _, level := range []string{cfg.LogLevel, cfg.SequencerLogLevel} {
		if level == "" {
			continue
		}

		if _, ok := logger.ParseLogLevel(level); !ok {
			return fmt.Errorf("%w: %q", errUnknownLogLevel, level)
		}
	}

	if cfg.SnapshotFile == "" {
		cfg.SnapshotFile = DefaultSnapshotFilename
	}

	if cfg.MinPhaseDuration == 0 {
		cfg.MinPhaseDuration = clock.MinReliable
	}

	if cfg.MinPhaseDuration < clock.MinReliable {
		return fmt.Errorf("%w: %v < %v", errFloorTooLow, cfg.MinPhaseDuration, clock.MinReliable)
	}

	if err := validateActuators(cfg.Actuators); err != nil {
		return err
	}

	s, err := cfg.BuildSchedule()
	if err != nil {
		return err
	}

	if err := s.Validate(cfg.Roles(), cfg.MinPhaseDuration); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	return nil
}

func validateActuators(actuators []Actuator) error {
	if len(actuators) == 0 {
		return errNoActuators
	}

	roles := make(map[string]struct{}, len(actuators))
	lines := make(map[string]struct{}, len(actuators))

	for i, a := range actuators {
		if a.Role == "" || a.Line == "" {
			return fmt.Errorf("actuator %d: %w", i, errActuatorIncomplete)
		}

		if _, ok := roles[a.Role]; ok {
			return fmt.Errorf("%w: %q", errDuplicateRole, a.Role)
		}

		if _, ok := lines[a.Line]; ok {
			return fmt.Errorf("%w: %q", errDuplicateLine, a.Line)
		}

		roles[a.Role] = struct{}{}
		lines[a.Line] = struct{}{}
	}

	return nil
}

// Roles returns the configured roles in application order.
func (c *Config) Roles() []actuator.Role {
	roles := make([]actuator.Role, 0, len(c.Actuators))
	for _, a := range c.Actuators {
		roles = append(roles, actuator.Role(a.Role))
	}

	return roles
}

// Lines returns the configured line names in application order.
func (c *Config) Lines() []string {
	lines := make([]string, 0, len(c.Actuators))
	for _, a := range c.Actuators {
		lines = append(lines, a.Line)
	}

	return lines
}

// BuildSchedule converts the configured phases into a domain schedule.
// Each phase starts from All for every configured role and applies Levels on top.
func (c *Config) BuildSchedule() (*schedule.Schedule, error) {
	phases := make([]schedule.Phase, 0, len(c.Schedule))

	for i, p := range c.Schedule {
		phase, err := c.buildPhase(&p)
		if err != nil {
			return nil, fmt.Errorf("phase %d (%s): %w", i, p.Name, err)
		}

		phases = append(phases, phase)
	}

	s, err := schedule.New(phases...)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}

	return s, nil
}

func (c *Config) buildPhase(p *Phase) (schedule.Phase, error) {
	levels := make(map[actuator.Role]actuator.Level, len(c.Actuators))

	if p.All != "" {
		all, err := actuator.ParseLevel(p.All)
		if err != nil {
			return schedule.Phase{}, err
		}

		for _, role := range c.Roles() {
			levels[role] = all
		}
	}

	for role, value := range p.Levels {
		level, err := actuator.ParseLevel(value)
		if err != nil {
			return schedule.Phase{}, fmt.Errorf("%s: %w", role, err)
		}

		levels[actuator.Role(role)] = level
	}

	for _, role := range c.Roles() {
		if _, ok := levels[role]; !ok {
			return schedule.Phase{}, fmt.Errorf("%w: %q", errLevelMissing, role)
		}
	}

	return schedule.Phase{
		Name:     p.Name,
		Levels:   levels,
		Duration: p.Duration,
	}, nil
}
