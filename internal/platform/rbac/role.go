// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import "sort"

// # Built-in Roles

const (
	// Unrestricted system access
	RoleAdmin = "admin"

	// Runs the warehouse: inventory, counts and reports, no user or role mutation
	RoleManager = "manager"

	// Performs counts on the floor
	RoleClerk = "clerk"

	// Read-only access to inventory, counts and reports
	RoleViewer = "viewer"
)

// Role is a named bundle of permissions.
type Role struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Permissions PermissionSet `json:"permissions"`
}

var roles = map[string]Role{
	RoleAdmin: {
		Name:        RoleAdmin,
		Description: "Full system administrator with all permissions",
		Permissions: AllPermissions(),
	},
	RoleManager: {
		Name:        RoleManager,
		Description: "Inventory manager with read/write access to inventory, counts and reports",
		Permissions: NewPermissionSet(
			UsersRead,
			InventoryRead, InventoryCreate, InventoryUpdate, InventoryExport,
			CountsRead, CountsCreate, CountsUpdate, CountsApprove,
			ReportsRead, ReportsCreate, ReportsExport,
			LocationsRead,
			RolesRead,
		),
	},
	RoleClerk: {
		Name:        RoleClerk,
		Description: "Inventory clerk who performs counts",
		Permissions: NewPermissionSet(
			InventoryRead,
			CountsRead, CountsCreate, CountsUpdate,
			ReportsRead,
		),
	},
	RoleViewer: {
		Name:        RoleViewer,
		Description: "Read-only access to inventory, counts and reports",
		Permissions: NewPermissionSet(InventoryRead, CountsRead, ReportsRead),
	},
}

// PermissionsForRole returns the permissions granted to name, or the empty set for unknown roles.
func PermissionsForRole(name string) PermissionSet {
	role, ok := roles[name]
	if !ok {
		return PermissionSet{}
	}
	return role.Permissions
}

// LookupRole returns the built-in role called name.
func LookupRole(name string) (Role, bool) {
	role, ok := roles[name]
	return role, ok
}

// RoleDescription returns the description of name, or "Unknown role".
func RoleDescription(name string) string {
	if role, ok := roles[name]; ok {
		return role.Description
	}
	return "Unknown role"
}

// Roles returns the built-in roles sorted by name.
func Roles() []Role {
	list := make([]Role, 0, len(roles))
	for _, role := range roles {
		list = append(list, role)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// IsValidRole reports whether name is a built-in role.
func IsValidRole(name string) bool {
	_, ok := roles[name]
	return ok
}
