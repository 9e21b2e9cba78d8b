// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package rbac implements the static role-based access control engine.

The permission catalog and the role table are frozen at package initialisation.
There is no mutation API: adding a permission or a role is a code change.

Architecture:

  - Catalog: 27 resource:action permissions with descriptions.
  - Roles: admin, manager, clerk, viewer, each mapped to an immutable [PermissionSet].
  - Engine: resolves an identity's permissions through the external role store
    and produces [Guard] values that gate protected operations.

Everything here except the role lookup is pure and safe for concurrent use.
*/
package rbac

import "sort"

// # Permission Catalog

// Permission is an immutable (name, description) pair. Name is "resource:action".
type Permission struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

const (
	UsersRead   = "users:read"
	UsersCreate = "users:create"
	UsersUpdate = "users:update"
	UsersDelete = "users:delete"

	InventoryRead   = "inventory:read"
	InventoryCreate = "inventory:create"
	InventoryUpdate = "inventory:update"
	InventoryDelete = "inventory:delete"
	InventoryExport = "inventory:export"

	CountsRead    = "counts:read"
	CountsCreate  = "counts:create"
	CountsUpdate  = "counts:update"
	CountsDelete  = "counts:delete"
	CountsApprove = "counts:approve"

	ReportsRead   = "reports:read"
	ReportsCreate = "reports:create"
	ReportsExport = "reports:export"

	SystemAdmin  = "system:admin"
	SystemConfig = "system:config"

	LocationsRead   = "locations:read"
	LocationsCreate = "locations:create"
	LocationsUpdate = "locations:update"
	LocationsDelete = "locations:delete"

	RolesRead   = "roles:read"
	RolesCreate = "roles:create"
	RolesUpdate = "roles:update"
	RolesDelete = "roles:delete"
)

var catalog = func() map[string]Permission {
	entries := []Permission{
		{UsersRead, "View user information"},
		{UsersCreate, "Create new users"},
		{UsersUpdate, "Update user information"},
		{UsersDelete, "Delete users"},

		{InventoryRead, "View inventory items"},
		{InventoryCreate, "Create inventory items"},
		{InventoryUpdate, "Update inventory items"},
		{InventoryDelete, "Delete inventory items"},
		{InventoryExport, "Export inventory data"},

		{CountsRead, "View inventory counts"},
		{CountsCreate, "Create inventory counts"},
		{CountsUpdate, "Update inventory counts"},
		{CountsDelete, "Delete inventory counts"},
		{CountsApprove, "Approve inventory counts"},

		{ReportsRead, "View reports"},
		{ReportsCreate, "Create reports"},
		{ReportsExport, "Export reports"},

		{SystemAdmin, "Full system administration"},
		{SystemConfig, "Modify system configuration"},

		{LocationsRead, "View locations"},
		{LocationsCreate, "Create locations"},
		{LocationsUpdate, "Update locations"},
		{LocationsDelete, "Delete locations"},

		{RolesRead, "View roles and permissions"},
		{RolesCreate, "Create roles"},
		{RolesUpdate, "Update roles"},
		{RolesDelete, "Delete roles"},
	}

	table := make(map[string]Permission, len(entries))
	for _, entry := range entries {
		table[entry.Name] = entry
	}
	return table
}()

// Catalog returns every permission sorted by name. The slice is a fresh copy.
func Catalog() []Permission {
	permissions := make([]Permission, 0, len(catalog))
	for _, permission := range catalog {
		permissions = append(permissions, permission)
	}
	sort.Slice(permissions, func(i, j int) bool { return permissions[i].Name < permissions[j].Name })
	return permissions
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Permission, bool) {
	permission, ok := catalog[name]
	return permission, ok
}

// AllPermissions returns the full catalog as a set.
func AllPermissions() PermissionSet {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	return NewPermissionSet(names...)
}
