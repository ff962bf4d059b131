package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/laminator/internal/service/controller"
)

// newValidateCommand builds the `validate` subcommand.
func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the wiring and schedule without touching hardware.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := controller.Validate(&controller.Options{ConfigPath: configPath})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cfg := summary.Config

			_, _ = fmt.Fprintf(out, "backend: %s, delay: %s\n", cfg.Backend, cfg.Delay)

			for _, a := range cfg.Actuators {
				_, _ = fmt.Fprintf(out, "actuator %-16s line %s\n", a.Role, a.Line)
			}

			for i := range summary.Schedule.Len() {
				phase := summary.Schedule.Phase(i)
				_, _ = fmt.Fprintf(out, "phase %d %-10s hold %v\n", i, phase.Name, phase.Duration)
			}

			_, _ = fmt.Fprintf(out, "period: %v\n", summary.Schedule.Period())

			return nil
		},
	}
}
