package permissions

import (
	"github.com/spectraproject/spectra/internal/common/auth"
	"github.com/spectraproject/spectra/internal/common/auth/permission"
)

// The built-in roles, ordered by increasing privilege. High-priority
// submission and cross-owner cancellation are reserved for admins.
var (
	RoleGuest = auth.Role{
		Name:           "guest",
		HierarchyLevel: 0,
	}
	RoleUser = auth.Role{
		Name:           "user",
		HierarchyLevel: 10,
		Permissions: []permission.Permission{
			SubmitJobs,
			CancelJobs,
		},
	}
	RoleOperator = auth.Role{
		Name:           "operator",
		HierarchyLevel: 20,
		Permissions: []permission.Permission{
			SubmitJobs,
			CancelJobs,
			WatchAllJobs,
		},
	}
	RoleAdmin = auth.Role{
		Name:           "admin",
		HierarchyLevel: 30,
		Permissions: []permission.Permission{
			SubmitJobs,
			SubmitHighPriorityJobs,
			CancelJobs,
			CancelAnyJobs,
			WatchAllJobs,
		},
	}
)

// RoleByName maps a configured role name to a built-in role.
func RoleByName(name string) (auth.Role, bool) {
	switch name {
	case RoleGuest.Name:
		return RoleGuest, true
	case RoleUser.Name:
		return RoleUser, true
	case RoleOperator.Name:
		return RoleOperator, true
	case RoleAdmin.Name:
		return RoleAdmin, true
	}
	return auth.Role{}, false
}
