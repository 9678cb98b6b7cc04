// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package store provides database connectivity and schema management.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connect settings. Startup tolerates a database that is still coming up,
// which is common when the engine and Postgres start under one supervisor.
const (
	connectRetryBase = 500 * time.Millisecond
	connectRetryMax  = 6
)

// Connect opens a pgx connection pool and verifies connectivity with a ping.
// Transient ping failures are retried with exponential backoff before giving up.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_POOL_FAILED").Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectRetryMax, retry.NewExponential(connectRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			slog.Debug("database ping failed, retrying", "error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_UNREACHABLE").With("retries", connectRetryMax).Wrap(err)
	}

	return pool, nil
}
