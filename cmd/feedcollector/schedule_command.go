package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newScheduleCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run collections repeatedly on the configured interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			application, err := cmdCtx.application(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = application.Close(context.Background()) }()

			if err := application.Schedule(ctx); err != nil {
				cmdCtx.logger.Error("scheduler stopped", "error", err)
				return err
			}
			cmdCtx.logger.Info("scheduler stopped")
			return nil
		},
	}
}
