// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// poolIface is the slice of pgxpool.Pool the stores use. pgxmock
// satisfies it too, so store tests run without a database.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
