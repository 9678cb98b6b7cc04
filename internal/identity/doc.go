// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package identity implements the account, credential, and session
// lifecycle engine.
//
// # Domain Types
//
// The durable entities (Identity, Credential, Session, Token, Role,
// RoleAssignment) are plain structs persisted through narrow store
// ports. Identifiers are store-assigned; a zero id means "not yet
// persisted". Secrets never appear in a domain type: Credential holds
// an argon2id hash, Session and Token hold a SHA-256 digest of the
// random value handed to the caller.
//
// # Service
//
// Service orchestrates the stores to implement the lifecycle
// operations: Authenticate, Register, Deregister, Login, Logout,
// ResetCredential, and UpdateIdentity. Each operation takes a flat
// Params set, applies policy (hashing, rehash, role checks), mutates
// state through the ports, and publishes exactly one lifecycle event
// on success - always as its final step, after every durable write.
// Operations report outcomes as a Result rather than an error:
// validation, authentication, and authorization failures are expected
// outcomes, not faults.
package identity
