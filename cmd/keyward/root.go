// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/logging"
)

// NewRootCmd creates the root command for the keyward CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyward",
		Short: "Keyward - identity and session engine",
		Long: `Keyward manages identity accounts, credentials, sessions, and
role assignments backed by PostgreSQL.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logging.SetDefault("keyward", cmd.Root().Version, cfg.Log.Format, cfg.Log.Level)
			return nil
		},
	}

	cmd.PersistentFlags().String("config", "", "config file path")
	cmd.PersistentFlags().String("database.url", "", "PostgreSQL connection URL")
	cmd.PersistentFlags().String("log.level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log.format", "", "log format (text, json)")
	cmd.PersistentFlags().String("observability.addr", "", "metrics and health listen address")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// loadConfig layers the optional config file and any set persistent flags
// over the defaults. Unset flags do not override file values.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Root().PersistentFlags()

	path, _ := flags.GetString("config")
	explicit := flags.Changed("config")
	if path == "" {
		path = "keyward.yaml"
	}

	// Only flags the user actually set may override file values.
	changed := pflag.NewFlagSet("changed", pflag.ContinueOnError)
	flags.Visit(func(f *pflag.Flag) {
		if f.Name != "config" {
			changed.AddFlag(f)
		}
	})

	return config.Load(path, explicit, changed)
}
