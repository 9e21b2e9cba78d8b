// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the identity flows of the Stockroom API.

It owns the user and role records, issues and refreshes token pairs, and
emits an audit event for every state change.

# Architecture

  - Service: registration, login, refresh, logout, password and profile changes.
  - Repositories: Postgres stores for users and roles over database/sql.
  - RevocationStore: refresh-token deny-list, Redis in production and an
    in-memory map for single-instance setups and tests.
  - Handler: the /api/v1/auth routes.
*/
package auth

import (
	"time"

	"github.com/taibuivan/stockroom/internal/platform/sec"
)

// # Domain Entities

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	RoleID       *string   `json:"role_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Subject returns what tokens for this user are issued for.
func (user *User) Subject() sec.Subject {
	return sec.Subject{ID: user.ID, Username: user.Username, RoleID: user.RoleID}
}

// Role is a persisted role row. Its permissions come from the static catalog,
// looked up by Name.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// # Field Identifiers

const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldRefreshToken    = "refresh_token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
)
