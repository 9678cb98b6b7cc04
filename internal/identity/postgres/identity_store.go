// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/keyward/keyward/internal/identity"
)

// IdentityStore implements identity.IdentityStore using PostgreSQL.
type IdentityStore struct {
	pool poolIface
}

// NewIdentityStore creates a new IdentityStore.
func NewIdentityStore(pool poolIface) *IdentityStore {
	return &IdentityStore{pool: pool}
}

const identityColumns = `id, email, email_confirmed, display_name, date_joined, last_login`

// Create persists a new identity and sets its store-assigned id.
func (s *IdentityStore) Create(ctx context.Context, ident *identity.Identity) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO identities (email, email_confirmed, display_name, date_joined, last_login)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		ident.Email,
		ident.EmailConfirmed,
		ident.DisplayName,
		ident.DateJoined,
		ident.LastLogin,
	).Scan(&ident.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("IDENTITY_DUPLICATE").
				With("email", ident.Email).
				Wrap(identity.ErrDuplicate)
		}
		return oops.Code("IDENTITY_CREATE_FAILED").
			With("operation", "insert identity").
			With("email", ident.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an identity by id.
func (s *IdentityStore) GetByID(ctx context.Context, id int64) (*identity.Identity, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE id = $1
	`, id)

	ident, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("IDENTITY_NOT_FOUND").
			With("id", id).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_GET_BY_ID_FAILED").
			With("operation", "get identity by id").
			With("id", id).
			Wrap(err)
	}
	return ident, nil
}

// GetByEmail retrieves an identity by email (case-insensitive).
func (s *IdentityStore) GetByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE LOWER(email) = LOWER($1)
	`, email)

	ident, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("IDENTITY_NOT_FOUND").
			With("email", email).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_GET_BY_EMAIL_FAILED").
			With("operation", "get identity by email").
			With("email", email).
			Wrap(err)
	}
	return ident, nil
}

// Update rewrites all mutable fields of an existing identity.
func (s *IdentityStore) Update(ctx context.Context, ident *identity.Identity) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE identities SET
			email = $2,
			email_confirmed = $3,
			display_name = $4,
			last_login = $5
		WHERE id = $1
	`,
		ident.ID,
		ident.Email,
		ident.EmailConfirmed,
		ident.DisplayName,
		ident.LastLogin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("IDENTITY_DUPLICATE").
				With("email", ident.Email).
				Wrap(identity.ErrDuplicate)
		}
		return oops.Code("IDENTITY_UPDATE_FAILED").
			With("operation", "update identity").
			With("id", ident.ID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("IDENTITY_NOT_FOUND").
			With("id", ident.ID).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

// Delete removes an identity.
func (s *IdentityStore) Delete(ctx context.Context, id int64) error {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM identities WHERE id = $1
	`, id)
	if err != nil {
		return oops.Code("IDENTITY_DELETE_FAILED").
			With("operation", "delete identity").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("IDENTITY_NOT_FOUND").
			With("id", id).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

// List returns identities ordered by id.
func (s *IdentityStore) List(ctx context.Context, limit, offset int) ([]*identity.Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM identities
		ORDER BY id
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.Code("IDENTITY_LIST_FAILED").
			With("operation", "list identities").
			Wrap(err)
	}
	defer rows.Close()

	var idents []*identity.Identity
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, oops.Code("IDENTITY_LIST_FAILED").
				With("operation", "scan identity row").
				Wrap(err)
		}
		idents = append(idents, ident)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("IDENTITY_LIST_FAILED").
			With("operation", "iterate identities").
			Wrap(err)
	}
	return idents, nil
}

// Count returns the number of identities.
func (s *IdentityStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM identities`).Scan(&n)
	if err != nil {
		return 0, oops.Code("IDENTITY_COUNT_FAILED").
			With("operation", "count identities").
			Wrap(err)
	}
	return n, nil
}

// scanIdentity scans a single row into an Identity. Callers handle
// pgx.ErrNoRows.
func scanIdentity(row pgx.Row) (*identity.Identity, error) {
	var (
		ident     identity.Identity
		lastLogin *time.Time
	)

	err := row.Scan(
		&ident.ID,
		&ident.Email,
		&ident.EmailConfirmed,
		&ident.DisplayName,
		&ident.DateJoined,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("IDENTITY_SCAN_FAILED").
			With("operation", "scan identity").
			Wrap(err)
	}

	ident.LastLogin = lastLogin
	return &ident, nil
}

// Compile-time interface check.
var _ identity.IdentityStore = (*IdentityStore)(nil)
