// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/store"
)

// migrateConfig holds flags for the migrate subcommand.
type migrateConfig struct {
	down  bool
	steps int
	force int
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cfg := &migrateConfig{force: -1}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply pending schema migrations against the configured PostgreSQL
database. With --down, roll back all migrations instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.down, "down", false, "roll back all migrations (destructive)")
	cmd.Flags().IntVar(&cfg.steps, "steps", 0, "apply exactly n migrations (negative rolls back)")
	cmd.Flags().IntVar(&cfg.force, "force", -1, "force the schema version without running migrations")

	return cmd
}

func runMigrate(cmd *cobra.Command, cfg *migrateConfig) error {
	appCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	migrator, err := store.NewMigrator(appCfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	switch {
	case cfg.force >= 0:
		if err := migrator.Force(cfg.force); err != nil {
			return err
		}
		cmd.Printf("Forced schema version to %d\n", cfg.force)
	case cfg.down:
		if err := migrator.Down(); err != nil {
			return err
		}
		cmd.Println("Rolled back all migrations")
	case cfg.steps != 0:
		if err := migrator.Steps(cfg.steps); err != nil {
			return err
		}
		cmd.Printf("Applied %d migration step(s)\n", cfg.steps)
	default:
		if err := migrator.Up(); err != nil {
			return err
		}
		cmd.Println("Migrations completed successfully")
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	cmd.Printf("Schema version: %d (dirty: %v)\n", version, dirty)
	return nil
}
