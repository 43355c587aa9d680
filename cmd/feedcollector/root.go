package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"FeedCollector/internal/app"
	"FeedCollector/internal/config"
	"FeedCollector/internal/logging"
)

type commandContext struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	c.cfg = &cfg
	c.logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

// application loads config and wires the app; the caller must Close it.
func (c *commandContext) application(ctx context.Context) (*app.Application, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, c.logger)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newRootCommand() *cobra.Command {
	cmdCtx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "feedcollector",
		Short:         "Collect, summarize and store news and market data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipConfigLoad"] == "true" {
				return nil
			}
			_, err := cmdCtx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cmdCtx.configPath, "config", "c", "", "Configuration file path (YAML or TOML)")

	rootCmd.AddCommand(newRunCommand(cmdCtx))
	rootCmd.AddCommand(newScheduleCommand(cmdCtx))
	rootCmd.AddCommand(newConfigCommand(cmdCtx))

	return rootCmd
}
