package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/oshokin/laminator/internal/logger"
	"github.com/oshokin/laminator/internal/service/controller"
	"github.com/oshokin/laminator/internal/version"
)

var (
	// configPath to an optional configuration YAML file.
	configPath string
	// snapshotFile overrides where the run status is written.
	snapshotFile string

	// rootCmd represents the base command for running the controller.
	rootCmd = &cobra.Command{
		Use:   "laminator",
		Short: "Drive the laminator pumps and heaters on their duty-cycle schedule.",
		Long: `Runs the laminator controller.

The controller claims every configured output line once, then walks the
duty-cycle schedule forever: each phase is applied to all actuators in their
declared order and held for its duration before the next phase starts.
No arguments are needed: wiring and schedule are embedded at build time.

The loop halts on the first actuator write fault or delay fault. Outputs keep
their last commanded levels after a halt; an external watchdog or hardware
fail-safe is required to bring them to a safe state.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &controller.Options{
				ConfigPath:   configPath,
				SnapshotFile: snapshotFile,
			}

			return controller.Run(ctx, options)
		},
	}
)

// Execute runs the laminator CLI and exits with non-zero status on error.
func Execute() {
	atexit.Register(logger.Sync)

	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(newValidateCommand(), newSelftestCommand())

	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "path to configuration file (default: embedded configuration)")
	rootCmd.Flags().StringVarP(&snapshotFile, "snapshot-file", "s", "", "path to write the run status snapshot")
}
