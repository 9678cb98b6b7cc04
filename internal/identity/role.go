// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package identity

import "context"

// Well-known role names.
const (
	RoleAdministrator = "Administrator"
	RoleAuthor        = "Author"
	RoleReviewer      = "Reviewer"
	RoleViewer        = "Viewer"
	RoleEditor        = "Editor"
	RoleNone          = "None"
)

// WellKnownRoles lists the roles seeded into a fresh deployment.
var WellKnownRoles = []string{
	RoleAdministrator,
	RoleAuthor,
	RoleReviewer,
	RoleViewer,
	RoleEditor,
	RoleNone,
}

// GlobalScope is the default assignment scope.
const GlobalScope int64 = 0

// Role is a named permission grouping. Names are unique.
type Role struct {
	ID   int64
	Name string
}

// RoleAssignment binds an identity to a role within a scope.
// Assignment existence is the sole authority for permission checks;
// there is no hierarchy.
type RoleAssignment struct {
	IdentityID int64
	RoleID     int64
	Scope      int64
}

// RoleAuthority manages roles and assignments and answers membership
// queries.
type RoleAuthority interface {
	// GetRole retrieves a role by name.
	GetRole(ctx context.Context, name string) (*Role, error)

	// EnsureRole returns the role with the given name, creating it if
	// missing. A concurrent create is resolved by re-reading.
	EnsureRole(ctx context.Context, name string) (*Role, error)

	// ListRoles returns all roles ordered by name.
	ListRoles(ctx context.Context) ([]*Role, error)

	// Assign binds an identity to a role within a scope. Assigning an
	// existing binding returns ErrDuplicate.
	Assign(ctx context.Context, identityID, roleID, scope int64) error

	// HasRole reports whether the identity holds the named role in
	// the given scope.
	HasRole(ctx context.Context, identityID int64, name string, scope int64) (bool, error)

	// ListAssignments returns all assignments for an identity.
	ListAssignments(ctx context.Context, identityID int64) ([]*RoleAssignment, error)

	// DeleteAssignmentsForIdentity removes every assignment held by
	// an identity.
	DeleteAssignmentsForIdentity(ctx context.Context, identityID int64) error
}
