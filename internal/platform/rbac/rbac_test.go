// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/ctxutil"
	"github.com/taibuivan/stockroom/internal/platform/rbac"
	"github.com/taibuivan/stockroom/internal/platform/sec"
)

// staticLookup maps role ids to names and counts calls.
type staticLookup struct {
	names map[string]string
	calls atomic.Int32
	err   error
}

func (lookup *staticLookup) RoleNameByID(_ context.Context, roleID string) (string, error) {
	lookup.calls.Add(1)
	if lookup.err != nil {
		return "", lookup.err
	}
	name, ok := lookup.names[roleID]
	if !ok {
		return "", apperr.NotFound("Role", roleID)
	}
	return name, nil
}

func newLookup() *staticLookup {
	return &staticLookup{names: map[string]string{
		"r-admin":   rbac.RoleAdmin,
		"r-manager": rbac.RoleManager,
		"r-clerk":   rbac.RoleClerk,
		"r-viewer":  rbac.RoleViewer,
	}}
}

func identityWithRole(roleID string) *sec.Identity {
	return &sec.Identity{SubjectID: "user-" + roleID, Username: "user", RoleID: &roleID}
}

/*
TestCatalog_Frozen checks catalog size and that callers cannot mutate it.
*/
func TestCatalog_Frozen(t *testing.T) {
	catalog := rbac.Catalog()
	assert.Len(t, catalog, 27)

	catalog[0].Name = "tampered"
	assert.NotEqual(t, "tampered", rbac.Catalog()[0].Name)

	permission, ok := rbac.Lookup(rbac.InventoryUpdate)
	require.True(t, ok)
	assert.Equal(t, "Update inventory items", permission.Description)
}

/*
TestPermissionsForRole verifies the role table.
*/
func TestPermissionsForRole(t *testing.T) {
	assert.Equal(t, 27, rbac.PermissionsForRole(rbac.RoleAdmin).Len())
	assert.Equal(t, 0, rbac.PermissionsForRole("ghost").Len())
	assert.Equal(t, "Unknown role", rbac.RoleDescription("ghost"))

	manager := rbac.PermissionsForRole(rbac.RoleManager)
	assert.True(t, manager.Has(rbac.CountsApprove))
	assert.False(t, manager.Has(rbac.UsersUpdate))
	assert.False(t, manager.Has(rbac.RolesCreate))

	assert.Equal(t,
		[]string{rbac.CountsRead, rbac.InventoryRead, rbac.ReportsRead},
		rbac.PermissionsForRole(rbac.RoleViewer).Names(),
	)
}

/*
TestEngine_ResolveUserPermissions covers full, partial and empty grants.
*/
func TestEngine_ResolveUserPermissions(t *testing.T) {
	engine := rbac.NewEngine(newLookup())
	ctx := context.Background()

	admin, err := engine.ResolveUserPermissions(ctx, identityWithRole("r-admin"))
	require.NoError(t, err)
	assert.True(t, admin.Equal(rbac.AllPermissions()))

	clerk, err := engine.ResolveUserPermissions(ctx, identityWithRole("r-clerk"))
	require.NoError(t, err)
	assert.True(t, clerk.Equal(rbac.NewPermissionSet(
		rbac.InventoryRead, rbac.CountsRead, rbac.CountsCreate, rbac.CountsUpdate, rbac.ReportsRead,
	)))

	none, err := engine.ResolveUserPermissions(ctx, &sec.Identity{SubjectID: "u"})
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())

	unknown, err := engine.ResolveUserPermissions(ctx, identityWithRole("r-deleted"))
	require.NoError(t, err)
	assert.Equal(t, 0, unknown.Len())
}

/*
TestEngine_LookupFailure surfaces store failures instead of granting or silently denying.
*/
func TestEngine_LookupFailure(t *testing.T) {
	lookup := newLookup()
	lookup.err = errors.New("connection reset")
	engine := rbac.NewEngine(lookup)

	_, err := engine.ResolveUserPermissions(context.Background(), identityWithRole("r-admin"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindDatabase))
}

/*
TestPermissionSet_Predicates checks pure containment semantics.
*/
func TestPermissionSet_Predicates(t *testing.T) {
	set := rbac.NewPermissionSet(rbac.InventoryRead, rbac.CountsRead)

	assert.True(t, set.Has(rbac.InventoryRead))
	assert.True(t, set.HasAny(rbac.UsersRead, rbac.CountsRead))
	assert.False(t, set.HasAny())
	assert.True(t, set.HasAll())
	assert.False(t, set.HasAll(rbac.InventoryRead, rbac.UsersRead))

	var empty rbac.PermissionSet
	assert.False(t, empty.Has(rbac.InventoryRead))
	assert.Empty(t, empty.Names())
}

/*
TestGuards exercises every guard factory against the built-in roles.
*/
func TestGuards(t *testing.T) {
	engine := rbac.NewEngine(newLookup())

	tests := []struct {
		name    string
		guard   rbac.Guard
		roleID  string
		allowed bool
		message string
	}{
		{"viewer_reads_inventory", engine.RequirePermission(rbac.InventoryRead), "r-viewer", true, ""},
		{"viewer_cannot_update", engine.RequirePermission(rbac.InventoryUpdate), "r-viewer", false, "Access denied. Required permission: inventory:update"},
		{"clerk_manages_counts", engine.RequireCountManagement(), "r-clerk", true, ""},
		{"viewer_cannot_manage_inventory", engine.RequireInventoryManagement(), "r-viewer", false, "Access denied. Required one of permissions: inventory:create, inventory:update, inventory:delete"},
		{"manager_lacks_delete", engine.RequireAllPermissions(rbac.InventoryUpdate, rbac.InventoryDelete), "r-manager", false, "Access denied. Required all permissions: inventory:update, inventory:delete"},
		{"admin_has_all", engine.RequireAllPermissions(rbac.InventoryUpdate, rbac.InventoryDelete), "r-admin", true, ""},
		{"admin_guard", engine.RequireAdmin(), "r-manager", false, "Access denied. Required permission: system:admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ctxutil.WithIdentity(context.Background(), identityWithRole(tt.roleID))
			_, err := tt.guard.Check(ctx)

			if tt.allowed {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, apperr.KindAuthorization, appError.Kind)
			assert.Equal(t, tt.message, appError.Message)
		})
	}
}

/*
TestGuards_Unauthenticated fails with 401 when no identity is attached.
*/
func TestGuards_Unauthenticated(t *testing.T) {
	engine := rbac.NewEngine(newLookup())

	_, err := engine.RequirePermission(rbac.InventoryRead).Check(context.Background())
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))
}

/*
TestCompose_ResolvesOnce verifies chained guards share one role lookup.
*/
func TestCompose_ResolvesOnce(t *testing.T) {
	lookup := newLookup()
	engine := rbac.NewEngine(lookup)

	guard := rbac.Compose(
		engine.RequirePermission(rbac.InventoryRead),
		engine.RequirePermission(rbac.CountsRead),
		engine.RequireAnyPermission(rbac.ReportsRead, rbac.ReportsCreate),
	)

	ctx := ctxutil.WithIdentity(context.Background(), identityWithRole("r-viewer"))
	_, err := guard.Check(ctx)

	require.NoError(t, err)
	assert.Equal(t, int32(1), lookup.calls.Load())
}
