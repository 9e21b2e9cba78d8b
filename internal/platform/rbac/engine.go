// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"context"
	"strings"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/ctxkey"
	"github.com/taibuivan/stockroom/internal/platform/ctxutil"
	"github.com/taibuivan/stockroom/internal/platform/sec"
)

// # Role Lookup

// RoleLookup resolves a persisted role id to its name.
//
// Implementations must return an [apperr] NotFound error for unknown ids; any
// other error is treated as a collaborator failure.
type RoleLookup interface {
	RoleNameByID(ctx context.Context, roleID string) (string, error)
}

// RoleLookupFunc adapts a plain function to [RoleLookup].
type RoleLookupFunc func(ctx context.Context, roleID string) (string, error)

// RoleNameByID implements [RoleLookup].
func (fn RoleLookupFunc) RoleNameByID(ctx context.Context, roleID string) (string, error) {
	return fn(ctx, roleID)
}

// # Engine

// Engine resolves permissions for identities and builds guards.
type Engine struct {
	lookup RoleLookup
}

// NewEngine creates an Engine backed by lookup.
func NewEngine(lookup RoleLookup) *Engine {
	return &Engine{lookup: lookup}
}

// ResolveUserPermissions returns the permissions of identity.
//
// No identity, no role, or a role id the store does not know all yield the empty
// set. Authorization never falls back to a guessed grant.
func (engine *Engine) ResolveUserPermissions(ctx context.Context, identity *sec.Identity) (PermissionSet, error) {
	if !identity.HasRole() {
		return PermissionSet{}, nil
	}

	roleName, err := engine.lookup.RoleNameByID(ctx, *identity.RoleID)
	if apperr.IsKind(err, apperr.KindNotFound) {
		return PermissionSet{}, nil
	}
	if err != nil {
		if apperr.As(err) != nil {
			return PermissionSet{}, err
		}
		return PermissionSet{}, apperr.Database("Failed to resolve role", err)
	}

	return PermissionsForRole(roleName), nil
}

type cachedPermissions struct {
	subjectID   string
	permissions PermissionSet
}

// Permissions returns the permission set of the authenticated identity in ctx,
// resolving at most once per request. The returned context carries the cache.
func (engine *Engine) Permissions(ctx context.Context) (context.Context, PermissionSet, error) {
	identity := ctxutil.GetIdentity(ctx)
	if identity == nil {
		return ctx, PermissionSet{}, apperr.Authentication("Authentication required")
	}

	if cached, ok := ctx.Value(ctxkey.KeyPermissions).(cachedPermissions); ok && cached.subjectID == identity.SubjectID {
		return ctx, cached.permissions, nil
	}

	permissions, err := engine.ResolveUserPermissions(ctx, identity)
	if err != nil {
		return ctx, PermissionSet{}, err
	}

	ctx = context.WithValue(ctx, ctxkey.KeyPermissions, cachedPermissions{subjectID: identity.SubjectID, permissions: permissions})
	return ctx, permissions, nil
}

// # Guards

// Guard gates a protected operation. It either returns the (possibly enriched)
// context unchanged in meaning, or an authentication/authorization error.
type Guard interface {
	Check(ctx context.Context) (context.Context, error)
}

// GuardFunc adapts a function to [Guard].
type GuardFunc func(ctx context.Context) (context.Context, error)

// Check implements [Guard].
func (fn GuardFunc) Check(ctx context.Context) (context.Context, error) {
	return fn(ctx)
}

// Compose runs guards in order and stops at the first failure.
func Compose(guards ...Guard) Guard {
	return GuardFunc(func(ctx context.Context) (context.Context, error) {
		for _, guard := range guards {
			var err error
			if ctx, err = guard.Check(ctx); err != nil {
				return ctx, err
			}
		}
		return ctx, nil
	})
}

func (engine *Engine) guard(allowed func(PermissionSet) bool, message string, required []string) Guard {
	return GuardFunc(func(ctx context.Context) (context.Context, error) {
		ctx, permissions, err := engine.Permissions(ctx)
		if err != nil {
			return ctx, err
		}
		if !allowed(permissions) {
			return ctx, apperr.Authorization(message).WithDetail("required_permissions", required)
		}
		return ctx, nil
	})
}

// RequirePermission passes only identities holding permission.
func (engine *Engine) RequirePermission(permission string) Guard {
	return engine.guard(
		func(set PermissionSet) bool { return set.Has(permission) },
		"Access denied. Required permission: "+permission,
		[]string{permission},
	)
}

// RequireAnyPermission passes identities holding at least one of permissions.
func (engine *Engine) RequireAnyPermission(permissions ...string) Guard {
	return engine.guard(
		func(set PermissionSet) bool { return set.HasAny(permissions...) },
		"Access denied. Required one of permissions: "+strings.Join(permissions, ", "),
		permissions,
	)
}

// RequireAllPermissions passes identities holding every one of permissions.
func (engine *Engine) RequireAllPermissions(permissions ...string) Guard {
	return engine.guard(
		func(set PermissionSet) bool { return set.HasAll(permissions...) },
		"Access denied. Required all permissions: "+strings.Join(permissions, ", "),
		permissions,
	)
}

// RequireInventoryManagement passes identities allowed to change inventory.
func (engine *Engine) RequireInventoryManagement() Guard {
	return engine.RequireAnyPermission(InventoryCreate, InventoryUpdate, InventoryDelete)
}

// RequireCountManagement passes identities allowed to change or approve counts.
func (engine *Engine) RequireCountManagement() Guard {
	return engine.RequireAnyPermission(CountsCreate, CountsUpdate, CountsDelete, CountsApprove)
}

// RequireAdmin passes system administrators.
func (engine *Engine) RequireAdmin() Guard {
	return engine.RequirePermission(SystemAdmin)
}
