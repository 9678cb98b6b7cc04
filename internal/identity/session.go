// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// TokenBytes is the entropy of session and general-purpose tokens.
// 32 bytes encode to 64 hex characters.
const TokenBytes = 32

// Session is a live authenticated context bound to one identity.
// Sessions are immutable once created; the only mutation is deletion.
type Session struct {
	ID         int64
	IdentityID int64
	TokenHash  string
	RemoteAddr string
	RemoteHost string
	CreatedAt  time.Time
}

// GenerateToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error). The plaintext goes to
// the caller; only the hash is stored.
func GenerateToken() (token, hash string, err error) {
	buf := make([]byte, TokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	token = hex.EncodeToString(buf)
	hash = HashToken(token)

	return token, hash, nil
}

// HashToken computes the SHA-256 digest of a token, hex-encoded. All
// token comparisons happen on stored hashes; plaintext never reaches a
// store.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionStore manages Session persistence. The token hash column is
// unique; Create returns ErrDuplicate on collision rather than
// overwriting.
type SessionStore interface {
	// Create persists a new session and sets its ID.
	Create(ctx context.Context, sess *Session) error

	// GetByID retrieves a session by id.
	GetByID(ctx context.Context, id int64) (*Session, error)

	// FindByToken retrieves the session for an identity and token
	// hash.
	FindByToken(ctx context.Context, identityID int64, tokenHash string) (*Session, error)

	// Delete removes a session by id.
	Delete(ctx context.Context, id int64) error

	// DeleteByIdentity removes all sessions for an identity.
	DeleteByIdentity(ctx context.Context, identityID int64) error
}

// SessionContext carries the caller's ambient request state into the
// operations that need it: the current session (identity id + token)
// for Logout and the self/administrator branch of UpdateIdentity, and
// the remote address for Login. A zero value means "no session".
type SessionContext struct {
	IdentityID int64
	Token      string
	RemoteAddr string
}

// Present reports whether the context names a session.
func (c SessionContext) Present() bool {
	return c.IdentityID > 0 && c.Token != ""
}
