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

// RoleAuthority implements identity.RoleAuthority using PostgreSQL.
type RoleAuthority struct {
	pool poolIface
}

// NewRoleAuthority creates a new RoleAuthority.
func NewRoleAuthority(pool poolIface) *RoleAuthority {
	return &RoleAuthority{pool: pool}
}

// GetRole retrieves a role by name.
func (a *RoleAuthority) GetRole(ctx context.Context, name string) (*identity.Role, error) {
	var role identity.Role
	err := a.pool.QueryRow(ctx, `
		SELECT id, name FROM roles WHERE name = $1
	`, name).Scan(&role.ID, &role.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ROLE_NOT_FOUND").
			With("name", name).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ROLE_GET_FAILED").
			With("operation", "get role by name").
			With("name", name).
			Wrap(err)
	}
	return &role, nil
}

// EnsureRole returns the named role, creating it if missing. The
// unique index on name is the backstop: when a concurrent create wins
// the race, the resulting violation is resolved by re-reading.
func (a *RoleAuthority) EnsureRole(ctx context.Context, name string) (*identity.Role, error) {
	role, err := a.GetRole(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return nil, err
	}

	var created identity.Role
	created.Name = name
	err = a.pool.QueryRow(ctx, `
		INSERT INTO roles (name) VALUES ($1) RETURNING id
	`, name).Scan(&created.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return a.GetRole(ctx, name)
		}
		return nil, oops.Code("ROLE_CREATE_FAILED").
			With("operation", "insert role").
			With("name", name).
			Wrap(err)
	}
	return &created, nil
}

// ListRoles returns all roles ordered by name.
func (a *RoleAuthority) ListRoles(ctx context.Context) ([]*identity.Role, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT id, name FROM roles ORDER BY name
	`)
	if err != nil {
		return nil, oops.Code("ROLE_LIST_FAILED").
			With("operation", "list roles").
			Wrap(err)
	}
	defer rows.Close()

	var roles []*identity.Role
	for rows.Next() {
		var role identity.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, oops.Code("ROLE_LIST_FAILED").
				With("operation", "scan role row").
				Wrap(err)
		}
		roles = append(roles, &role)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ROLE_LIST_FAILED").
			With("operation", "iterate roles").
			Wrap(err)
	}
	return roles, nil
}

// Assign binds an identity to a role within a scope.
func (a *RoleAuthority) Assign(ctx context.Context, identityID, roleID, scope int64) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO role_assignments (identity_id, role_id, scope)
		VALUES ($1, $2, $3)
	`, identityID, roleID, scope)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("ASSIGNMENT_DUPLICATE").
				With("identity_id", identityID).
				With("role_id", roleID).
				Wrap(identity.ErrDuplicate)
		}
		return oops.Code("ASSIGNMENT_CREATE_FAILED").
			With("operation", "insert assignment").
			With("identity_id", identityID).
			Wrap(err)
	}
	return nil
}

// HasRole reports whether the identity holds the named role in the
// given scope. Assignment existence is the sole authority; there is
// no hierarchy.
func (a *RoleAuthority) HasRole(ctx context.Context, identityID int64, name string, scope int64) (bool, error) {
	var held bool
	err := a.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM role_assignments ra
			JOIN roles r ON r.id = ra.role_id
			WHERE ra.identity_id = $1 AND r.name = $2 AND ra.scope = $3
		)
	`, identityID, name, scope).Scan(&held)
	if err != nil {
		return false, oops.Code("ASSIGNMENT_CHECK_FAILED").
			With("operation", "check role membership").
			With("identity_id", identityID).
			With("name", name).
			Wrap(err)
	}
	return held, nil
}

// ListAssignments returns all assignments for an identity.
func (a *RoleAuthority) ListAssignments(ctx context.Context, identityID int64) ([]*identity.RoleAssignment, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT identity_id, role_id, scope
		FROM role_assignments
		WHERE identity_id = $1
	`, identityID)
	if err != nil {
		return nil, oops.Code("ASSIGNMENT_LIST_FAILED").
			With("operation", "list assignments").
			With("identity_id", identityID).
			Wrap(err)
	}
	defer rows.Close()

	var assignments []*identity.RoleAssignment
	for rows.Next() {
		var ra identity.RoleAssignment
		if err := rows.Scan(&ra.IdentityID, &ra.RoleID, &ra.Scope); err != nil {
			return nil, oops.Code("ASSIGNMENT_LIST_FAILED").
				With("operation", "scan assignment row").
				Wrap(err)
		}
		assignments = append(assignments, &ra)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ASSIGNMENT_LIST_FAILED").
			With("operation", "iterate assignments").
			Wrap(err)
	}
	return assignments, nil
}

// DeleteAssignmentsForIdentity removes every assignment held by an
// identity.
func (a *RoleAuthority) DeleteAssignmentsForIdentity(ctx context.Context, identityID int64) error {
	_, err := a.pool.Exec(ctx, `
		DELETE FROM role_assignments WHERE identity_id = $1
	`, identityID)
	if err != nil {
		return oops.Code("ASSIGNMENT_DELETE_FAILED").
			With("operation", "delete assignments by identity").
			With("identity_id", identityID).
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ identity.RoleAuthority = (*RoleAuthority)(nil)
