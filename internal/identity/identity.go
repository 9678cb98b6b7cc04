// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package identity

import (
	"context"
	"net/mail"
	"time"
)

// Identity represents a durable user account.
type Identity struct {
	ID             int64
	Email          string
	EmailConfirmed bool
	DisplayName    string
	DateJoined     time.Time
	LastLogin      *time.Time
}

// ValidEmail reports whether the string is a well-formed address.
// Display-name forms ("Name <a@b>") are rejected; only the bare
// address is accepted.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

// ValidDisplayName reports whether the string is usable as a display
// name.
func ValidDisplayName(s string) bool {
	return s != ""
}

// IdentityStore manages Identity persistence. Create assigns the id;
// the email column carries a case-insensitive unique index, so Create
// and Update return ErrDuplicate on collision.
type IdentityStore interface {
	// GetByID retrieves an identity by id.
	GetByID(ctx context.Context, id int64) (*Identity, error)

	// GetByEmail retrieves an identity by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*Identity, error)

	// Create persists a new identity and sets its ID.
	Create(ctx context.Context, ident *Identity) error

	// Update rewrites all mutable fields of an existing identity.
	Update(ctx context.Context, ident *Identity) error

	// Delete removes an identity.
	Delete(ctx context.Context, id int64) error

	// List returns identities ordered by id. A limit of 0 means no
	// limit.
	List(ctx context.Context, limit, offset int) ([]*Identity, error)

	// Count returns the number of identities.
	Count(ctx context.Context) (int64, error)
}
