// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/identity/postgres"
	"github.com/keyward/keyward/internal/store"
)

// Default timeout for status command.
const defaultStatusTimeout = 10 * time.Second

// EngineStatus holds the status information reported by the status command.
type EngineStatus struct {
	Database      string `json:"database"`
	SchemaVersion uint   `json:"schema_version"`
	SchemaDirty   bool   `json:"schema_dirty"`
	Identities    int64  `json:"identities"`
	Error         string `json:"error,omitempty"`
}

// statusConfig holds flags for the status subcommand.
type statusConfig struct {
	jsonOutput bool
	timeout    time.Duration
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database connectivity and schema status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultStatusTimeout, "timeout for database operations")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	appCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	status := queryStatus(ctx, appCfg.Database.URL)

	if cfg.jsonOutput {
		out, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	cmd.Printf("Database:       %s\n", status.Database)
	if status.Error != "" {
		cmd.Printf("Error:          %s\n", status.Error)
		return nil
	}
	cmd.Printf("Schema version: %d (dirty: %v)\n", status.SchemaVersion, status.SchemaDirty)
	cmd.Printf("Identities:     %d\n", status.Identities)
	return nil
}

func queryStatus(ctx context.Context, databaseURL string) EngineStatus {
	status := EngineStatus{Database: "unreachable"}

	pool, err := store.Connect(ctx, databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer pool.Close()
	status.Database = "ok"

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer func() { _ = migrator.Close() }()

	version, dirty, err := migrator.Version()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.SchemaVersion = version
	status.SchemaDirty = dirty

	count, err := postgres.NewIdentityStore(pool).Count(ctx)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Identities = count

	return status
}
