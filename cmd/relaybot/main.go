// Command relaybot runs the Telegram relay bot.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/m3rciful/relaybot/app"
	"github.com/m3rciful/relaybot/core/buildinfo"
	corecmd "github.com/m3rciful/relaybot/core/cmd"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "relaybot",
		Short:        "Relay private messages to an admin group and moderate them",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env is fine; the environment may already be set.
			_ = godotenv.Load()
			return corecmd.Run(runOptions(configPath))
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (overrides CONFIG_PATH).")
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func runOptions(configPath string) corecmd.Options {
	return corecmd.Options{
		ConfigPath:        configPath,
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := app.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			c, ok := cfg.(*app.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", cfg)
			}
			a, err := app.Bootstrap(ctx, c)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
			return err
		},
	}
}
