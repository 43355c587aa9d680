package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	var report bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a single collection run",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			application, err := cmdCtx.application(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = application.Close(context.Background()) }()

			result, err := application.RunOnce(ctx)
			if err != nil {
				cmdCtx.logger.Error("run failed", "error", err)
				return err
			}

			if report {
				fmt.Fprintln(cmd.OutOrStdout(), renderRunReport(result))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&report, "report", false, "Print a per-source table after the run")
	return cmd
}
