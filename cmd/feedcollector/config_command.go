package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"FeedCollector/internal/config"
)

func newConfigCommand(cmdCtx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok: %d sources, llm=%s, storage=%s\n",
				len(cfg.Sources), cfg.LLM.Provider, displayDriver(cfg.Storage.Driver))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(redact(cfg))
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})

	return configCmd
}

func displayDriver(driver string) string {
	if driver == config.DriverNone {
		return "none"
	}
	return driver
}

func redact(cfg config.Config) config.Config {
	cfg.LLM.APIKey = maskSecret(cfg.LLM.APIKey)
	cfg.Storage.URI = maskSecret(cfg.Storage.URI)
	cfg.Notifications.Telegram.BotToken = maskSecret(cfg.Notifications.Telegram.BotToken)

	sources := make([]config.SourceConfig, len(cfg.Sources))
	copy(sources, cfg.Sources)
	for i := range sources {
		sources[i].APIKey = maskSecret(sources[i].APIKey)
	}
	cfg.Sources = sources
	return cfg
}

func maskSecret(value string) string {
	switch {
	case value == "":
		return ""
	case len(value) <= 8:
		return "****"
	default:
		return value[:4] + "****"
	}
}
