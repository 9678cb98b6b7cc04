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

// TokenStore implements identity.TokenStore using PostgreSQL.
type TokenStore struct {
	pool poolIface
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool poolIface) *TokenStore {
	return &TokenStore{pool: pool}
}

// Create persists a new token.
func (s *TokenStore) Create(ctx context.Context, tok *identity.Token) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (identity_id, purpose, token_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`,
		tok.IdentityID,
		string(tok.Purpose),
		tok.TokenHash,
		tok.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("TOKEN_DUPLICATE").
				With("identity_id", tok.IdentityID).
				With("purpose", string(tok.Purpose)).
				Wrap(identity.ErrDuplicate)
		}
		return oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "insert token").
			With("identity_id", tok.IdentityID).
			Wrap(err)
	}
	return nil
}

// Find retrieves the token matching an identity, purpose, and hash.
func (s *TokenStore) Find(ctx context.Context, identityID int64, purpose identity.TokenPurpose, tokenHash string) (*identity.Token, error) {
	var (
		tok        identity.Token
		purposeStr string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT identity_id, purpose, token_hash, created_at
		FROM tokens
		WHERE identity_id = $1 AND purpose = $2 AND token_hash = $3
	`, identityID, string(purpose), tokenHash).Scan(
		&tok.IdentityID,
		&purposeStr,
		&tok.TokenHash,
		&tok.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").
			With("identity_id", identityID).
			With("purpose", string(purpose)).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_FIND_FAILED").
			With("operation", "find token").
			With("identity_id", identityID).
			Wrap(err)
	}
	tok.Purpose = identity.TokenPurpose(purposeStr)
	return &tok, nil
}

// Delete removes a single token.
func (s *TokenStore) Delete(ctx context.Context, identityID int64, purpose identity.TokenPurpose, tokenHash string) error {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM tokens
		WHERE identity_id = $1 AND purpose = $2 AND token_hash = $3
	`, identityID, string(purpose), tokenHash)
	if err != nil {
		return oops.Code("TOKEN_DELETE_FAILED").
			With("operation", "delete token").
			With("identity_id", identityID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TOKEN_NOT_FOUND").
			With("identity_id", identityID).
			With("purpose", string(purpose)).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

// DeleteByIdentity removes all tokens for an identity.
func (s *TokenStore) DeleteByIdentity(ctx context.Context, identityID int64) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM tokens WHERE identity_id = $1
	`, identityID)
	if err != nil {
		return oops.Code("TOKEN_DELETE_FAILED").
			With("operation", "delete tokens by identity").
			With("identity_id", identityID).
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ identity.TokenStore = (*TokenStore)(nil)
