// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package identity

import (
	"context"
	"time"
)

// Provider identifies the authentication method a credential belongs
// to. The set is closed; a failed lookup is reported through
// ErrNotFound, never through a sentinel provider value.
type Provider uint8

// ProviderBasic is the password provider.
const ProviderBasic Provider = 1

func (p Provider) String() string {
	switch p {
	case ProviderBasic:
		return "basic"
	default:
		return "unknown"
	}
}

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	return p == ProviderBasic
}

// Credential is a provider-scoped hashed secret bound to one identity.
// At most one credential exists per (identity, provider) pair.
type Credential struct {
	IdentityID int64
	Provider   Provider
	SecretHash string
	UpdatedAt  time.Time
}

// CredentialStore manages Credential persistence keyed by
// (identity, provider).
type CredentialStore interface {
	// Get retrieves the credential for an identity and provider.
	Get(ctx context.Context, identityID int64, provider Provider) (*Credential, error)

	// Create persists a new credential. Returns ErrDuplicate if one
	// already exists for the pair.
	Create(ctx context.Context, cred *Credential) error

	// Update rewrites the stored hash for an existing credential.
	Update(ctx context.Context, cred *Credential) error

	// DeleteByIdentity removes all credentials for an identity.
	DeleteByIdentity(ctx context.Context, identityID int64) error
}
