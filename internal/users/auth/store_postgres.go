// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/dberr"
	"github.com/taibuivan/stockroom/pkg/pointer"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// # User Repository

// PostgresUserRepository implements [UserRepository] on database/sql.
type PostgresUserRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db, now: time.Now}
}

const userColumns = `id, username, email, password_hash, is_active, role_id, created_at, updated_at`

func scanUser(row rowScanner) (*User, error) {
	user := &User{}
	var roleID sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&roleID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if roleID.Valid {
		user.RoleID = pointer.To(roleID.String)
	}
	return user, nil
}

func (repository *PostgresUserRepository) findOne(ctx context.Context, action, where string, arg any) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(repository.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, dberr.Wrap(err, "User", action)
	}
	return user, nil
}

// FindByID implements [UserRepository].
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return repository.findOne(ctx, "find user by id", "id = $1", id)
}

// FindByUsername implements [UserRepository].
func (repository *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return repository.findOne(ctx, "find user by username", "username = $1", username)
}

// FindByEmail implements [UserRepository].
func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return repository.findOne(ctx, "find user by email", "email = $1", email)
}

/*
Create persists a new user record.

Timestamps are initialised here when the caller left them zero. A duplicate
username or email comes back as a CONFLICT_ERROR naming the constraint.
*/
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := repository.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.RoleID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return dberr.Wrap(err, "User", "create user")
}

// Update implements [UserRepository]. The username is immutable.
func (repository *PostgresUserRepository) Update(ctx context.Context, user *User) error {
	const query = `
		UPDATE users
		SET email = $2, password_hash = $3, is_active = $4, role_id = $5, updated_at = $6
		WHERE id = $1`

	user.UpdatedAt = repository.now().UTC()

	result, err := repository.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.RoleID,
		user.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "User", "update user")
	}

	return requireAffected(result, "User", user.ID)
}

// # Role Repository

// PostgresRoleRepository implements [RoleRepository] on database/sql.
type PostgresRoleRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRoleRepository creates a new PostgreSQL implementation of the RoleRepository.
func NewRoleRepository(db *sql.DB) *PostgresRoleRepository {
	return &PostgresRoleRepository{db: db, now: time.Now}
}

const roleColumns = `id, name, description, created_at, updated_at`

func scanRole(row rowScanner) (*Role, error) {
	role := &Role{}
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return nil, err
	}
	return role, nil
}

// FindByID implements [RoleRepository].
func (repository *PostgresRoleRepository) FindByID(ctx context.Context, id string) (*Role, error) {
	const query = `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`

	role, err := scanRole(repository.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "Role", "find role by id")
	}
	return role, nil
}

// FindByName implements [RoleRepository].
func (repository *PostgresRoleRepository) FindByName(ctx context.Context, name string) (*Role, error) {
	const query = `SELECT ` + roleColumns + ` FROM roles WHERE name = $1`

	role, err := scanRole(repository.db.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, dberr.Wrap(err, "Role", "find role by name")
	}
	return role, nil
}

// Create implements [RoleRepository].
func (repository *PostgresRoleRepository) Create(ctx context.Context, role *Role) error {
	const query = `INSERT INTO roles (` + roleColumns + `) VALUES ($1, $2, $3, $4, $5)`

	now := repository.now().UTC()
	role.CreatedAt, role.UpdatedAt = now, now

	_, err := repository.db.ExecContext(ctx, query, role.ID, role.Name, role.Description, role.CreatedAt, role.UpdatedAt)
	return dberr.Wrap(err, "Role", "create role")
}

// Update implements [RoleRepository].
func (repository *PostgresRoleRepository) Update(ctx context.Context, role *Role) error {
	const query = `UPDATE roles SET name = $2, description = $3, updated_at = $4 WHERE id = $1`

	role.UpdatedAt = repository.now().UTC()

	result, err := repository.db.ExecContext(ctx, query, role.ID, role.Name, role.Description, role.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "Role", "update role")
	}
	return requireAffected(result, "Role", role.ID)
}

// List returns every role ordered by name.
func (repository *PostgresRoleRepository) List(ctx context.Context) ([]*Role, error) {
	const query = `SELECT ` + roleColumns + ` FROM roles ORDER BY name`

	rows, err := repository.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "Role", "list roles")
	}
	defer rows.Close()

	var roles []*Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "Role", "scan role")
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Role", "list roles")
	}

	return roles, nil
}

// # Helpers

func requireAffected(result sql.Result, resource, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres_rows_affected_failed: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound(resource, id)
	}
	return nil
}
