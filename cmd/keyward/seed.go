// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/identity"
	"github.com/keyward/keyward/internal/identity/postgres"
	"github.com/keyward/keyward/internal/observability"
	"github.com/keyward/keyward/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds flags for the seed subcommand.
type seedConfig struct {
	timeout       time.Duration
	adminEmail    string
	adminPassword string
	adminName     string
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the well-known roles and an optional administrator account",
		Long: `Ensures the well-known roles exist and, when --admin-email and
--admin-password are given, registers a confirmed Administrator account.
This command is idempotent - it will not create duplicates if run multiple times.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().StringVar(&cfg.adminEmail, "admin-email", "", "email for the bootstrap administrator account")
	cmd.Flags().StringVar(&cfg.adminPassword, "admin-password", "", "password for the bootstrap administrator account")
	cmd.Flags().StringVar(&cfg.adminName, "admin-name", "Administrator", "display name for the bootstrap administrator account")

	return cmd
}

func runSeed(cmd *cobra.Command, cfg *seedConfig) error {
	appCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if (cfg.adminEmail == "") != (cfg.adminPassword == "") {
		return oops.Code("CONFIG_INVALID").Errorf("--admin-email and --admin-password must be given together")
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, appCfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Expose metrics and health probes for the duration of the run. A
	// busy listen address is not fatal; the run proceeds unobserved.
	obs := observability.NewServer(appCfg.Observability.Addr, func() bool {
		return pool.Ping(ctx) == nil
	})
	if _, err := obs.Start(); err != nil {
		cmd.Printf("Observability endpoints unavailable: %v\n", err)
	} else {
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			_ = obs.Stop(stopCtx)
		}()
	}

	roles := postgres.NewRoleAuthority(pool)

	for _, name := range identity.WellKnownRoles {
		role, err := roles.EnsureRole(ctx, name)
		if err != nil {
			return oops.Code("SEED_FAILED").With("role", name).Wrap(err)
		}
		cmd.Printf("Role %q ready (id=%d)\n", role.Name, role.ID)
	}

	if cfg.adminEmail == "" {
		cmd.Println("Seeding complete")
		return nil
	}

	return seedAdmin(ctx, cmd, pool, appCfg.Password, obs.Metrics(), cfg)
}

// seedAdmin registers the bootstrap administrator through the real
// registration flow so the account gets a proper credential, then assigns
// the Administrator role. An existing account is treated as success.
func seedAdmin(ctx context.Context, cmd *cobra.Command, pool *pgxpool.Pool, pw config.PasswordConfig, metrics *observability.Metrics, cfg *seedConfig) error {
	svc, err := newEngine(pool, pw, metrics)
	if err != nil {
		return err
	}

	res := svc.Register(ctx, identity.Params{
		identity.ParamEmail:                cfg.adminEmail,
		identity.ParamPassword:             cfg.adminPassword,
		identity.ParamPasswordConfirmation: cfg.adminPassword,
		identity.ParamDisplayName:          cfg.adminName,
		identity.ParamEmailConfirmed:       "true",
	})

	identities := postgres.NewIdentityStore(pool)
	roles := postgres.NewRoleAuthority(pool)

	switch {
	case res.Success:
		cmd.Printf("Created administrator account %s\n", cfg.adminEmail)
	case res.Kind == identity.FailureDuplicate:
		cmd.Println("Administrator account already exists, skipping")
	default:
		return oops.Code("SEED_FAILED").
			With("messages", res.Messages).
			Errorf("administrator registration failed")
	}

	ident, err := identities.GetByEmail(ctx, cfg.adminEmail)
	if err != nil {
		return oops.Code("SEED_FAILED").With("email", cfg.adminEmail).Wrap(err)
	}

	role, err := roles.GetRole(ctx, identity.RoleAdministrator)
	if err != nil {
		return oops.Code("SEED_FAILED").Wrap(err)
	}

	hasRole, err := roles.HasRole(ctx, ident.ID, identity.RoleAdministrator, identity.GlobalScope)
	if err != nil {
		return oops.Code("SEED_FAILED").Wrap(err)
	}
	if !hasRole {
		if err := roles.Assign(ctx, ident.ID, role.ID, identity.GlobalScope); err != nil {
			return oops.Code("SEED_FAILED").With("identity_id", ident.ID).Wrap(err)
		}
	}

	cmd.Println("Seeding complete")
	return nil
}
