// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package identity

import "github.com/keyward/keyward/internal/eventbus"

// Lifecycle event kinds. Each operation publishes exactly one event,
// as its final step, only on success.
const (
	EventAuthenticated   eventbus.Kind = "identity.authenticated"
	EventRegistered      eventbus.Kind = "identity.registered"
	EventDeregistered    eventbus.Kind = "identity.deregistered"
	EventLoggedIn        eventbus.Kind = "identity.logged_in"
	EventLoggedOut       eventbus.Kind = "identity.logged_out"
	EventCredentialReset eventbus.Kind = "identity.credential_reset"
	EventUpdated         eventbus.Kind = "identity.updated"
)

// EventKinds lists every lifecycle event kind, in a stable order.
var EventKinds = []eventbus.Kind{
	EventAuthenticated,
	EventRegistered,
	EventDeregistered,
	EventLoggedIn,
	EventLoggedOut,
	EventCredentialReset,
	EventUpdated,
}

// Event payloads.
type (
	// AuthenticatedEvent accompanies EventAuthenticated.
	AuthenticatedEvent struct {
		IdentityID int64
	}

	// RegisteredEvent accompanies EventRegistered.
	RegisteredEvent struct {
		Identity *Identity
	}

	// DeregisteredEvent accompanies EventDeregistered. Identity is a
	// snapshot taken before deletion - observers need the deleted
	// data, not a dangling reference.
	DeregisteredEvent struct {
		Identity *Identity
	}

	// LoggedInEvent accompanies EventLoggedIn.
	LoggedInEvent struct {
		Identity *Identity
		Session  *Session
	}

	// LoggedOutEvent accompanies EventLoggedOut.
	LoggedOutEvent struct {
		Session *Session
	}

	// CredentialResetEvent accompanies EventCredentialReset.
	CredentialResetEvent struct {
		Identity *Identity
	}

	// UpdatedEvent accompanies EventUpdated.
	UpdatedEvent struct {
		Identity *Identity
	}
)
