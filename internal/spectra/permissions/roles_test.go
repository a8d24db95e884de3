package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectraproject/spectra/internal/common/auth"
)

func TestHierarchyOrdering(t *testing.T) {
	assert.Less(t, RoleGuest.HierarchyLevel, RoleUser.HierarchyLevel)
	assert.Less(t, RoleUser.HierarchyLevel, RoleOperator.HierarchyLevel)
	assert.Less(t, RoleOperator.HierarchyLevel, RoleAdmin.HierarchyLevel)
}

func TestOnlyAdminSubmitsHighPriority(t *testing.T) {
	assert.False(t, RoleGuest.HasPermission(SubmitHighPriorityJobs))
	assert.False(t, RoleUser.HasPermission(SubmitHighPriorityJobs))
	assert.False(t, RoleOperator.HasPermission(SubmitHighPriorityJobs))
	assert.True(t, RoleAdmin.HasPermission(SubmitHighPriorityJobs))
}

func TestCheckerConsultsProviderEveryCall(t *testing.T) {
	provider := auth.NewStaticRoleProvider(RoleGuest)
	checker := auth.NewRolePermissionChecker(provider)
	ctx := context.Background()

	ok, err := checker.UserHasPermission(ctx, "alice", SubmitJobs)
	require.NoError(t, err)
	assert.False(t, ok)

	// A role change must be visible on the very next check: the gate never
	// caches roles across calls.
	provider.SetRole("alice", RoleUser)
	ok, err = checker.UserHasPermission(ctx, "alice", SubmitJobs)
	require.NoError(t, err)
	assert.True(t, ok)

	provider.SetRole("alice", RoleGuest)
	ok, err = checker.UserHasPermission(ctx, "alice", SubmitJobs)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoleByName(t *testing.T) {
	role, ok := RoleByName("admin")
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	_, ok = RoleByName("superuser")
	assert.False(t, ok)
}
