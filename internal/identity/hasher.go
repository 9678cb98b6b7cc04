// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// HashPolicy holds the argon2id parameters that define the current
// hashing policy. Stored hashes produced under different parameters
// are valid but flagged for rehash.
type HashPolicy struct {
	Memory  uint32 // KiB
	Time    uint32 // iterations
	Threads uint8
}

// DefaultHashPolicy is the OWASP-recommended argon2id parameter set.
var DefaultHashPolicy = HashPolicy{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
}

const (
	hashSaltLen = 16
	hashKeyLen  = 32
)

// ErrEmptyPassword is returned when attempting to hash an empty
// password.
var ErrEmptyPassword = oops.Code("HASH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing, verification, and the
// rehash-need policy check.
type PasswordHasher interface {
	// Hash produces a hash of the password under the current policy.
	Hash(password string) (string, error)

	// Verify checks the password against a stored hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an
	// error when the stored hash is unreadable.
	Verify(password, hash string) (bool, error)

	// NeedsRehash reports whether the stored hash was produced under
	// a policy other than the current one.
	NeedsRehash(hash string) bool
}

// Argon2idHasher implements PasswordHasher. New hashes are argon2id
// under the configured policy; verification also accepts legacy
// bcrypt hashes, which always need a rehash.
type Argon2idHasher struct {
	policy HashPolicy
}

// NewArgon2idHasher creates a hasher with the given policy. A zero
// policy falls back to DefaultHashPolicy.
func NewArgon2idHasher(policy HashPolicy) *Argon2idHasher {
	if policy == (HashPolicy{}) {
		policy = DefaultHashPolicy
	}
	return &Argon2idHasher{policy: policy}
}

// Hash produces an argon2id hash of the password in PHC string format.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, hashSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("HASH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.policy.Time, h.policy.Memory, h.policy.Threads, hashKeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.policy.Memory,
		h.policy.Time,
		h.policy.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify checks the password against a stored argon2id or bcrypt hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	if isBcryptHash(encodedHash) {
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case err == bcrypt.ErrMismatchedHashAndPassword:
			return false, nil
		default:
			return false, oops.Code("HASH_INVALID").Wrap(err)
		}
	}

	params, salt, expected, err := parseArgon2id(encodedHash)
	if err != nil {
		return false, err
	}

	keyLen := len(expected)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false, oops.Code("HASH_INVALID").Errorf("invalid hash key length: %d", keyLen)
	}

	computed := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, uint32(keyLen))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// NeedsRehash reports whether the hash should be recomputed: any
// non-argon2id hash, or an argon2id hash whose embedded parameters
// differ from the current policy.
func (h *Argon2idHasher) NeedsRehash(encodedHash string) bool {
	if !strings.HasPrefix(encodedHash, "$argon2id$") {
		return true
	}
	params, _, _, err := parseArgon2id(encodedHash)
	if err != nil {
		return true
	}
	return params != h.policy
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

// parseArgon2id splits a PHC-format argon2id string into its
// parameters, salt, and key.
func parseArgon2id(encodedHash string) (HashPolicy, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return HashPolicy{}, nil, nil, oops.Code("HASH_INVALID").Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return HashPolicy{}, nil, nil, oops.Code("HASH_INVALID").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return HashPolicy{}, nil, nil, oops.Code("HASH_INVALID").Wrap(err)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return HashPolicy{}, nil, nil, oops.Code("HASH_INVALID").Wrap(err)
	}
	if threads > 255 {
		return HashPolicy{}, nil, nil, oops.Code("HASH_INVALID").Errorf("threads value %d exceeds uint8 max", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return HashPolicy{}, nil, nil, oops.Code("HASH_INVALID").Wrap(err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return HashPolicy{}, nil, nil, oops.Code("HASH_INVALID").Wrap(err)
	}

	return HashPolicy{Memory: memory, Time: time, Threads: uint8(threads)}, salt, key, nil
}
