// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/stockroom/internal/platform/rbac"
)

// # User Data Access

// UserRepository defines the data access contract for accounts.
//
// Lookups return an [apperr] NotFound error when no row matches.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Create persists a new account. Duplicate usernames or emails surface as Conflict.
	Create(ctx context.Context, user *User) error

	// Update persists email, password hash, active flag and role of an existing account.
	Update(ctx context.Context, user *User) error
}

// # Role Data Access

// RoleRepository defines the data access contract for persisted roles.
type RoleRepository interface {
	FindByID(ctx context.Context, id string) (*Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	Create(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	List(ctx context.Context) ([]*Role, error)
}

// RoleLookup adapts roles to the lookup the RBAC engine resolves permissions with.
func RoleLookup(roles RoleRepository) rbac.RoleLookup {
	return rbac.RoleLookupFunc(func(ctx context.Context, roleID string) (string, error) {
		role, err := roles.FindByID(ctx, roleID)
		if err != nil {
			return "", err
		}
		return role.Name, nil
	})
}

// # Token Revocation

// RevocationStore remembers revoked refresh tokens by their jti until they
// would have expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
