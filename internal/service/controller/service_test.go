package controller

import (
	"context"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/laminator/internal/config"
	"github.com/oshokin/laminator/internal/domain/actuator"
	repository "github.com/oshokin/laminator/internal/repository/snapshot"
)

// writeSimConfig stores a simulated six-output configuration and returns its path.
func writeSimConfig(t *testing.T, dir string) string {
	t.Helper()

	cfg := &config.Config{
		Backend:      config.BackendSim,
		SnapshotFile: filepath.Join(dir, "snapshot.json"),
		Actuators: []config.Actuator{
			{Role: "test_indicator", Line: "GPIO4"},
			{Role: "pump_main", Line: "GPIO17"},
			{Role: "pump_aux", Line: "GPIO27"},
			{Role: "heater_left", Line: "GPIO22"},
			{Role: "heater_center", Line: "GPIO23"},
			{Role: "heater_right", Line: "GPIO24"},
		},
		Schedule: []config.Phase{
			{Name: "on", Duration: 50 * time.Millisecond, All: "on"},
			{Name: "off", Duration: 50 * time.Millisecond, All: "off"},
		},
	}

	path := filepath.Join(dir, "laminator.yaml")
	require.NoError(t, config.Save(path, cfg))

	return path
}

// TestRun_RequiresOptions verifies nil options are rejected.
func TestRun_RequiresOptions(t *testing.T) {
	t.Parallel()

	require.Error(t, Run(context.Background(), nil))

	_, err := Validate(nil)
	require.Error(t, err)
}

// TestRun_SimBackendStopsCleanly runs two cycles on the simulated backend and
// checks the snapshot written on cancellation.
func TestRun_SimBackendStopsCleanly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeSimConfig(t, dir)

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		go func() {
			done <- Run(ctx, &Options{ConfigPath: path})
		}()

		time.Sleep(175 * time.Millisecond)
		cancel()

		require.NoError(t, <-done)
	})

	status, err := repository.NewFileRepository(filepath.Join(dir, "snapshot.json")).Load(context.Background())
	require.NoError(t, err)
	require.True(t, status.Halted)
	require.Empty(t, status.Fault)
	require.NotEmpty(t, status.RunID)
	require.Equal(t, 1, status.Phase)
	require.Equal(t, "off", status.PhaseName)
	require.Equal(t, uint64(1), status.Cycle)
	require.Len(t, status.Levels, 6)

	for role, level := range status.Levels {
		require.Equal(t, actuator.Off, level, role)
	}
}

// TestRun_SnapshotOverride checks the option takes precedence over the file.
func TestRun_SnapshotOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeSimConfig(t, dir)
	override := filepath.Join(dir, "override.json")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, Run(ctx, &Options{ConfigPath: path, SnapshotFile: override}))

	status, err := repository.NewFileRepository(override).Load(context.Background())
	require.NoError(t, err)
	require.True(t, status.Halted)
}

// TestValidate_Summary checks the compiled schedule of a configuration file.
func TestValidate_Summary(t *testing.T) {
	t.Parallel()

	path := writeSimConfig(t, t.TempDir())

	summary, err := Validate(&Options{ConfigPath: path})
	require.NoError(t, err)
	require.Equal(t, config.BackendSim, summary.Config.Backend)
	require.Equal(t, 2, summary.Schedule.Len())
	require.Equal(t, 100*time.Millisecond, summary.Schedule.Period())

	_, err = Validate(&Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
}
