// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/keyward/keyward/internal/identity"
)

// SessionStore implements identity.SessionStore using PostgreSQL.
type SessionStore struct {
	pool poolIface
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(pool poolIface) *SessionStore {
	return &SessionStore{pool: pool}
}

const sessionColumns = `id, identity_id, token_hash, remote_addr, remote_host, created_at`

// Create persists a new session and sets its store-assigned id. A
// token hash collision violates the unique index and surfaces as
// ErrDuplicate; the existing row is never overwritten.
func (s *SessionStore) Create(ctx context.Context, sess *identity.Session) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sessions (identity_id, token_hash, remote_addr, remote_host, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		sess.IdentityID,
		sess.TokenHash,
		sess.RemoteAddr,
		sess.RemoteHost,
		sess.CreatedAt,
	).Scan(&sess.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("SESSION_TOKEN_COLLISION").
				With("identity_id", sess.IdentityID).
				Wrap(identity.ErrDuplicate)
		}
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("identity_id", sess.IdentityID).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a session by id.
func (s *SessionStore) GetByID(ctx context.Context, id int64) (*identity.Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = $1
	`, id)

	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").
			With("id", id).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_ID_FAILED").
			With("operation", "get session by id").
			With("id", id).
			Wrap(err)
	}
	return sess, nil
}

// FindByToken retrieves the session for an identity and token hash.
func (s *SessionStore) FindByToken(ctx context.Context, identityID int64, tokenHash string) (*identity.Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE identity_id = $1 AND token_hash = $2
	`, identityID, tokenHash)

	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").
			With("identity_id", identityID).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_FIND_BY_TOKEN_FAILED").
			With("operation", "find session by token").
			With("identity_id", identityID).
			Wrap(err)
	}
	return sess, nil
}

// Delete removes a session by id.
func (s *SessionStore) Delete(ctx context.Context, id int64) error {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM sessions WHERE id = $1
	`, id)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

// DeleteByIdentity removes all sessions for an identity.
func (s *SessionStore) DeleteByIdentity(ctx context.Context, identityID int64) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM sessions WHERE identity_id = $1
	`, identityID)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete sessions by identity").
			With("identity_id", identityID).
			Wrap(err)
	}
	return nil
}

func scanSession(row pgx.Row) (*identity.Session, error) {
	var sess identity.Session
	err := row.Scan(
		&sess.ID,
		&sess.IdentityID,
		&sess.TokenHash,
		&sess.RemoteAddr,
		&sess.RemoteHost,
		&sess.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan session").
			Wrap(err)
	}
	return &sess, nil
}

// Compile-time interface check.
var _ identity.SessionStore = (*SessionStore)(nil)
