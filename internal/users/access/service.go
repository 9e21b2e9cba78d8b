// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access exposes role administration and permission introspection.

Roles and their permissions come from the static catalog in [rbac]; this
package only records which role a user holds and reports what that role
grants.

# Security

Every route is guarded by a permission check in the router, on top of the
authentication done by the request pipeline.
*/
package access

import (
	"context"
	"fmt"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/audit"
	"github.com/taibuivan/stockroom/internal/platform/rbac"
	"github.com/taibuivan/stockroom/internal/platform/sec"
	"github.com/taibuivan/stockroom/internal/users/auth"
)

// NoRoleAssigned is reported as the role name of users without a role.
const NoRoleAssigned = "No role assigned"

// RoleProvisioner returns the persisted row of a catalog role, creating it if needed.
type RoleProvisioner interface {
	EnsureRole(ctx context.Context, name string) (*auth.Role, error)
}

// UserRoleInfo describes the role a user holds.
type UserRoleInfo struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	RoleName    string   `json:"role_name"`
	Permissions []string `json:"permissions"`
}

// Service implements role administration.
type Service struct {
	engine      *rbac.Engine
	users       auth.UserRepository
	roles       auth.RoleRepository
	provisioner RoleProvisioner
	audit       *audit.Logger
}

// NewService constructs a new [Service].
func NewService(
	engine *rbac.Engine,
	users auth.UserRepository,
	roles auth.RoleRepository,
	provisioner RoleProvisioner,
	auditLogger *audit.Logger,
) *Service {
	return &Service{
		engine:      engine,
		users:       users,
		roles:       roles,
		provisioner: provisioner,
		audit:       auditLogger,
	}
}

// # Catalog

// Permissions lists the whole permission catalog.
func (service *Service) Permissions() []rbac.Permission {
	return rbac.Catalog()
}

// Roles lists the persisted roles with the permissions the catalog grants them.
func (service *Service) Roles(ctx context.Context) ([]rbac.Role, error) {
	persisted, err := service.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("access_service_list_roles_failed: %w", err)
	}

	roles := make([]rbac.Role, 0, len(persisted))
	for _, role := range persisted {
		roles = append(roles, rbac.Role{
			Name:        role.Name,
			Description: rbac.RoleDescription(role.Name),
			Permissions: rbac.PermissionsForRole(role.Name),
		})
	}
	return roles, nil
}

// Role describes one catalog role.
func (service *Service) Role(name string) (rbac.Role, error) {
	role, ok := rbac.LookupRole(name)
	if !ok {
		return rbac.Role{}, apperr.NotFound(fmt.Sprintf("Role '%s'", name))
	}
	return role, nil
}

// # Users

// UserPermissions returns the sorted permission names of a user.
func (service *Service) UserPermissions(ctx context.Context, userID string) ([]string, error) {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return service.permissionsOf(ctx, user)
}

// UserRole returns the role and permissions of a user.
func (service *Service) UserRole(ctx context.Context, userID string) (*UserRoleInfo, error) {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	info := &UserRoleInfo{UserID: user.ID, Username: user.Username, RoleName: NoRoleAssigned}
	if user.RoleID != nil {
		role, err := service.roles.FindByID(ctx, *user.RoleID)
		switch {
		case err == nil:
			info.RoleName = role.Name
		case !apperr.IsKind(err, apperr.KindNotFound):
			return nil, fmt.Errorf("access_service_user_role_failed: %w", err)
		}
	}

	if info.Permissions, err = service.permissionsOf(ctx, user); err != nil {
		return nil, err
	}
	return info, nil
}

/*
AssignRole gives a user a catalog role, creating the role row on first use.

Returns the confirmation message shown to the caller.
*/
func (service *Service) AssignRole(ctx context.Context, actor *sec.Identity, userID, roleName string) (string, error) {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}

	role, err := service.provisioner.EnsureRole(ctx, roleName)
	if err != nil {
		return "", err
	}

	user.RoleID = &role.ID
	if err := service.users.Update(ctx, user); err != nil {
		return "", fmt.Errorf("access_service_assign_role_failed: %w", err)
	}

	service.audit.Record(ctx, audit.ActionRoleAssigned, &actor.SubjectID, map[string]any{
		"target_user_id": user.ID,
		"username":       user.Username,
		"role":           role.Name,
	})
	return fmt.Sprintf("Role '%s' assigned to user '%s'", role.Name, user.Username), nil
}

// RemoveRole clears the role of a user.
func (service *Service) RemoveRole(ctx context.Context, actor *sec.Identity, userID string) (string, error) {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}

	user.RoleID = nil
	if err := service.users.Update(ctx, user); err != nil {
		return "", fmt.Errorf("access_service_remove_role_failed: %w", err)
	}

	service.audit.Record(ctx, audit.ActionRoleRemoved, &actor.SubjectID, map[string]any{
		"target_user_id": user.ID,
		"username":       user.Username,
	})
	return fmt.Sprintf("Role removed from user '%s'", user.Username), nil
}

func (service *Service) permissionsOf(ctx context.Context, user *auth.User) ([]string, error) {
	permissions, err := service.engine.ResolveUserPermissions(ctx, &sec.Identity{
		SubjectID: user.ID,
		Username:  user.Username,
		RoleID:    user.RoleID,
	})
	if err != nil {
		return nil, err
	}
	return permissions.Names(), nil
}
