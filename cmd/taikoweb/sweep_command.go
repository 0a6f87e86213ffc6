package main

import (
	"fmt"
	"time"

	"taikoweb/services"

	"github.com/spf13/cobra"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove orphaned staging directories and payloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := ctx.ensure()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-age") {
				maxAge = cfg.StagingMaxAge
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			result := services.CleanStale(cmd.Context(), a.staging.Root(), maxAge, a.store, log)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d stale staging entries\n", len(result.Removed))
			for _, p := range result.Removed {
				fmt.Fprintf(out, "  %s\n", p)
			}
			if len(result.Errors) > 0 {
				for _, e := range result.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", e.Path, e.Error)
				}
				return fmt.Errorf("%d staging entries could not be cleaned", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 6*time.Hour, "Only remove entries older than this")
	return cmd
}
