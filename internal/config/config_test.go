package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/laminator/internal/clock"
	"github.com/oshokin/laminator/internal/domain/actuator"
)

// validConfig returns a small configuration that passes validation.
func validConfig() *Config {
	return &Config{
		Backend: BackendSim,
		Actuators: []Actuator{
			{Role: "pump_main", Line: "GPIO17"},
			{Role: "heater_center", Line: "GPIO23", Verify: true},
		},
		Schedule: []Phase{
			{Name: "on", Duration: 50 * time.Millisecond, All: "on"},
			{Name: "off", Duration: 50 * time.Millisecond, All: "off"},
		},
	}
}

// TestDefault_IsValid verifies the embedded build-time configuration.
func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg, err := Default()
	require.NoError(t, err)

	require.Equal(t, []actuator.Role{
		"test_indicator",
		"pump_main",
		"pump_aux",
		"heater_left",
		"heater_center",
		"heater_right",
	}, cfg.Roles())
	require.Len(t, cfg.Lines(), 6)
	require.Equal(t, clock.MinReliable, cfg.MinPhaseDuration)

	s, err := cfg.BuildSchedule()
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	require.Equal(t, 2*time.Second, s.Period())
}

// TestValidate_Defaults checks defaults are filled in.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Backend = ""

	require.NoError(t, Validate(cfg))
	require.Equal(t, BackendPeriph, cfg.Backend)
	require.Equal(t, clock.ModeSleep, cfg.Delay)
	require.Equal(t, DefaultSnapshotFilename, cfg.SnapshotFile)
	require.Equal(t, clock.MinReliable, cfg.MinPhaseDuration)
}

// TestValidate_Rejects covers the configuration-time failures.
func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*Config){
		"backend":        func(c *Config) { c.Backend = "arduino" },
		"delay":          func(c *Config) { c.Delay = "interrupt" },
		"log level":      func(c *Config) { c.LogLevel = "chatty" },
		"floor":          func(c *Config) { c.MinPhaseDuration = time.Microsecond },
		"no actuators":   func(c *Config) { c.Actuators = nil },
		"missing line":   func(c *Config) { c.Actuators[0].Line = "" },
		"duplicate role": func(c *Config) { c.Actuators[1].Role = c.Actuators[0].Role },
		"duplicate line": func(c *Config) { c.Actuators[1].Line = c.Actuators[0].Line },
		"empty schedule": func(c *Config) { c.Schedule = nil },
		"bad level":      func(c *Config) { c.Schedule[0].All = "half" },
		"zero duration":  func(c *Config) { c.Schedule[0].Duration = 0 },
		"below floor":    func(c *Config) { c.Schedule[0].Duration = 10 * time.Microsecond },
		"missing level":  func(c *Config) { c.Schedule[0].All = "" },
		"unknown role":   func(c *Config) { c.Schedule[0].Levels = map[string]string{"fan": "on"} },
	}

	for name, mutate := range cases {
		cfg := validConfig()
		mutate(cfg)
		require.Error(t, Validate(cfg), name)
	}

	require.Error(t, Validate(nil))
}

// TestValidate_FloorIsAccepted checks a phase exactly at the delay floor is valid.
func TestValidate_FloorIsAccepted(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Schedule[0].Duration = clock.MinReliable

	require.NoError(t, Validate(cfg))
}

// TestBuildSchedule_PerRoleLevels verifies Levels override All per role.
func TestBuildSchedule_PerRoleLevels(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Schedule[1].Levels = map[string]string{"pump_main": "on"}

	s, err := cfg.BuildSchedule()
	require.NoError(t, err)

	phase := s.Phase(1)
	require.Equal(t, map[actuator.Role]actuator.Level{
		"pump_main":     actuator.On,
		"heater_center": actuator.Off,
	}, phase.Levels)

	require.NoError(t, s.Validate(cfg.Roles(), clock.MinReliable))
}

// TestSaveLoadRoundtrip ensures configuration is persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "laminator.yaml")
	cfg := validConfig()

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Actuators, loaded.Actuators)
	require.Equal(t, cfg.Schedule, loaded.Schedule)
	require.Equal(t, BackendSim, loaded.Backend)

	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	require.Error(t, Save(path, nil))
}

// TestLoad_EnvOverrides verifies LAMINATOR_* variables override the file.
//
//nolint:paralleltest // t.Setenv is incompatible with t.Parallel.
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LAMINATOR_BACKEND", "sim")
	t.Setenv("LAMINATOR_DELAY", "busy")
	t.Setenv("LAMINATOR_LOG_LEVEL", "debug")
	t.Setenv("LAMINATOR_SNAPSHOT_FILE", "/tmp/snap.json")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, BackendSim, cfg.Backend)
	require.Equal(t, clock.ModeBusy, cfg.Delay)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "/tmp/snap.json", cfg.SnapshotFile)

	t.Setenv("LAMINATOR_BACKEND", "arduino")

	_, err = Load("")
	require.Error(t, err)
}
