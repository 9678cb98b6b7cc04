// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/observability"
	"github.com/keyward/keyward/internal/store"
)

const (
	readinessPingTimeout = 2 * time.Second
	shutdownTimeout      = 5 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the metrics and health endpoints",
		Long: `Runs the Prometheus metrics listener together with Kubernetes-style
liveness and readiness probes. Readiness reflects database connectivity.
The process stays resident until interrupted.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	appCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, appCfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	srv := observability.NewServer(appCfg.Observability.Addr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), readinessPingTimeout)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})

	errCh, err := srv.Start()
	if err != nil {
		return err
	}
	cmd.Printf("Serving metrics and health endpoints on %s\n", srv.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(stopCtx)
}
