// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package postgres implements the identity store ports using
// PostgreSQL. Uniqueness lives in the schema: unique-violation errors
// surface as identity.ErrDuplicate, absent rows as
// identity.ErrNotFound.
package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation reports whether the error is a unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
