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

// CredentialStore implements identity.CredentialStore using
// PostgreSQL.
type CredentialStore struct {
	pool poolIface
}

// NewCredentialStore creates a new CredentialStore.
func NewCredentialStore(pool poolIface) *CredentialStore {
	return &CredentialStore{pool: pool}
}

// Get retrieves the credential for an identity and provider.
func (s *CredentialStore) Get(ctx context.Context, identityID int64, provider identity.Provider) (*identity.Credential, error) {
	var cred identity.Credential
	err := s.pool.QueryRow(ctx, `
		SELECT identity_id, provider, secret_hash, updated_at
		FROM credentials
		WHERE identity_id = $1 AND provider = $2
	`, identityID, provider).Scan(
		&cred.IdentityID,
		&cred.Provider,
		&cred.SecretHash,
		&cred.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CREDENTIAL_NOT_FOUND").
			With("identity_id", identityID).
			With("provider", provider.String()).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CREDENTIAL_GET_FAILED").
			With("operation", "get credential").
			With("identity_id", identityID).
			Wrap(err)
	}
	return &cred, nil
}

// Create persists a new credential.
func (s *CredentialStore) Create(ctx context.Context, cred *identity.Credential) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO credentials (identity_id, provider, secret_hash, updated_at)
		VALUES ($1, $2, $3, $4)
	`,
		cred.IdentityID,
		cred.Provider,
		cred.SecretHash,
		cred.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("CREDENTIAL_DUPLICATE").
				With("identity_id", cred.IdentityID).
				With("provider", cred.Provider.String()).
				Wrap(identity.ErrDuplicate)
		}
		return oops.Code("CREDENTIAL_CREATE_FAILED").
			With("operation", "insert credential").
			With("identity_id", cred.IdentityID).
			Wrap(err)
	}
	return nil
}

// Update rewrites the stored hash for an existing credential.
func (s *CredentialStore) Update(ctx context.Context, cred *identity.Credential) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE credentials SET secret_hash = $3, updated_at = $4
		WHERE identity_id = $1 AND provider = $2
	`,
		cred.IdentityID,
		cred.Provider,
		cred.SecretHash,
		cred.UpdatedAt,
	)
	if err != nil {
		return oops.Code("CREDENTIAL_UPDATE_FAILED").
			With("operation", "update credential").
			With("identity_id", cred.IdentityID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("CREDENTIAL_NOT_FOUND").
			With("identity_id", cred.IdentityID).
			With("provider", cred.Provider.String()).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

// DeleteByIdentity removes all credentials for an identity.
func (s *CredentialStore) DeleteByIdentity(ctx context.Context, identityID int64) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM credentials WHERE identity_id = $1
	`, identityID)
	if err != nil {
		return oops.Code("CREDENTIAL_DELETE_FAILED").
			With("operation", "delete credentials by identity").
			With("identity_id", identityID).
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ identity.CredentialStore = (*CredentialStore)(nil)
