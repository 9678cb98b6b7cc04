// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package identity

import (
	"context"
	"time"
)

// TokenPurpose tags a general-purpose token with the flow it serves.
type TokenPurpose string

// Known token purposes.
const (
	PurposeEmailConfirm  TokenPurpose = "email-confirm"
	PurposePasswordReset TokenPurpose = "password-reset"
)

// Token is a purpose-tagged one-off artifact bound to an identity,
// distinct from a Session. Immutable once created; deleted on
// consumption or explicit invalidation.
type Token struct {
	IdentityID int64
	Purpose    TokenPurpose
	TokenHash  string
	CreatedAt  time.Time
}

// TokenStore manages Token persistence. The (identity, purpose, hash)
// triple is unique; Create returns ErrDuplicate on collision.
type TokenStore interface {
	// Create persists a new token.
	Create(ctx context.Context, tok *Token) error

	// Find retrieves the token matching an identity, purpose, and
	// token hash. Returns ErrNotFound when no row matches; the
	// persisted record is returned, never a fresh blank.
	Find(ctx context.Context, identityID int64, purpose TokenPurpose, tokenHash string) (*Token, error)

	// Delete removes a single token.
	Delete(ctx context.Context, identityID int64, purpose TokenPurpose, tokenHash string) error

	// DeleteByIdentity removes all tokens for an identity.
	DeleteByIdentity(ctx context.Context, identityID int64) error
}
