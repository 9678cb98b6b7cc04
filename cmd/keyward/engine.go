// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package main

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/eventbus"
	"github.com/keyward/keyward/internal/identity"
	"github.com/keyward/keyward/internal/identity/postgres"
	"github.com/keyward/keyward/internal/observability"
)

// newEngine assembles the identity service over the PostgreSQL stores.
// Lifecycle events and operation outcomes feed the given metrics.
func newEngine(pool *pgxpool.Pool, pw config.PasswordConfig, metrics *observability.Metrics) (*identity.Service, error) {
	bus := eventbus.New()
	metrics.ObserveBus(bus, identity.EventKinds)

	return identity.NewService(identity.ServiceConfig{
		Identities:  postgres.NewIdentityStore(pool),
		Credentials: postgres.NewCredentialStore(pool),
		Sessions:    postgres.NewSessionStore(pool),
		Tokens:      postgres.NewTokenStore(pool),
		Roles:       postgres.NewRoleAuthority(pool),
		Hasher: identity.NewArgon2idHasher(identity.HashPolicy{
			Memory:  pw.MemoryKiB,
			Time:    pw.Time,
			Threads: pw.Threads,
		}),
		Bus:      bus,
		Observer: metrics.RecordOperation,
	})
}
