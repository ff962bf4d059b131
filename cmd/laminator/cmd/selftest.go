package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/laminator/internal/clock"
	"github.com/oshokin/laminator/internal/selftest"
)

// newSelftestCommand builds the `selftest` command group.
func newSelftestCommand() *cobra.Command {
	group := &cobra.Command{
		Use:   "selftest",
		Short: "Run standalone hardware exercises.",
	}

	group.AddCommand(newRTCCommand(), newMACCommand())

	return group
}

// newRTCCommand builds `selftest rtc`.
func newRTCCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rtc",
		Short: "Program the real-time clock and read it back.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider := clock.NewSleeper()

			result, err := selftest.CheckRTC(
				cmd.Context(),
				selftest.NewSoftRTC(provider),
				provider,
				selftest.DefaultInitialDateTime,
			)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "set %s, read %s\n",
				result.Initial.Time().Format("2006-01-02 15:04:05 Mon"),
				result.Read.Time().Format("2006-01-02 15:04:05 Mon"),
			)

			return nil
		},
	}
}

// newMACCommand builds `selftest mac`.
func newMACCommand() *cobra.Command {
	var (
		iterations int
		threshold  int64
	)

	command := &cobra.Command{
		Use:   "mac",
		Short: "Benchmark multiply-accumulate over the coefficient table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := selftest.RunMAC(cmd.Context(), selftest.SoftMultiplier{}, selftest.MACOptions{
				Iterations: iterations,
				Threshold:  threshold,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "iterations: %d, above threshold: %d, max: %d, elapsed: %v\n",
				report.Iterations, report.Exceeded, report.Max, report.Elapsed)

			return nil
		},
	}

	command.Flags().IntVarP(&iterations, "iterations", "n", selftest.DefaultMACIterations, "number of dot products")
	command.Flags().Int64VarP(&threshold, "threshold", "t", selftest.DefaultMACThreshold, "log results above this value")

	return command
}
