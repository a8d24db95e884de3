// Package auth defines roles, the role provider contract and the permission
// checker used by the scheduler's authorization gate. Roles are ranked by a
// hierarchy level and carry a fixed permission set; the checker consults the
// role provider on every call so role changes take effect immediately and no
// stale authorization is ever cached.
package auth

import (
	"context"

	"github.com/spectraproject/spectra/internal/common/auth/permission"
)

// Role is a named privilege rank with an attached permission set.
type Role struct {
	Name           string
	HierarchyLevel int
	Permissions    []permission.Permission
}

func (r Role) HasPermission(perm permission.Permission) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// RoleProvider resolves the current role of a user. Implementations live
// outside the scheduling core (credential service, OIDC claims, static
// config); the core only depends on this contract.
type RoleProvider interface {
	CurrentRole(ctx context.Context, userID string) (Role, error)
}

// PermissionChecker answers permission queries for a user.
type PermissionChecker interface {
	UserHasPermission(ctx context.Context, userID string, perm permission.Permission) (bool, error)
}

// RolePermissionChecker resolves permissions through a RoleProvider. The
// provider is consulted on every call; the checker holds no per-user state.
type RolePermissionChecker struct {
	provider RoleProvider
}

func NewRolePermissionChecker(provider RoleProvider) *RolePermissionChecker {
	return &RolePermissionChecker{provider: provider}
}

func (c *RolePermissionChecker) UserHasPermission(ctx context.Context, userID string, perm permission.Permission) (bool, error) {
	role, err := c.provider.CurrentRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role.HasPermission(perm), nil
}
