// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/users/auth"
	"github.com/taibuivan/stockroom/pkg/pointer"
)

var userColumns = []string{"id", "username", "email", "password_hash", "is_active", "role_id", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

/*
TestUserRepository_FindByUsername scans nullable roles and maps missing rows.
*/
func TestUserRepository_FindByUsername(t *testing.T) {
	db, mock := newMock(t)
	repository := auth.NewUserRepository(db)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "alice", "alice@example.com", "$2a$04$hash", true, "r-1", created, created))

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1`).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-2", "bob", "bob@example.com", "$2a$04$hash", false, nil, created, created))

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	alice, err := repository.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-1", alice.ID)
	assert.Equal(t, "r-1", *alice.RoleID)
	assert.True(t, alice.IsActive)

	bob, err := repository.FindByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Nil(t, bob.RoleID)
	assert.False(t, bob.IsActive)

	_, err = repository.FindByUsername(context.Background(), "ghost")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

/*
TestUserRepository_Create maps unique violations to conflicts.
*/
func TestUserRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repository := auth.NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u-1", "alice", "alice@example.com", "hash", true, "r-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u-2", "alice", "other@example.com", "hash", true, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	user := &auth.User{ID: "u-1", Username: "alice", Email: "alice@example.com", PasswordHash: "hash", IsActive: true, RoleID: pointer.To("r-1")}
	require.NoError(t, repository.Create(context.Background(), user))
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)

	duplicate := &auth.User{ID: "u-2", Username: "alice", Email: "other@example.com", PasswordHash: "hash", IsActive: true}
	err := repository.Create(context.Background(), duplicate)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, apperr.KindConflict, appError.Kind)
	assert.Equal(t, "users_username_key", appError.Details["constraint"])
}

/*
TestUserRepository_Update reports a vanished row as not found.
*/
func TestUserRepository_Update(t *testing.T) {
	db, mock := newMock(t)
	repository := auth.NewUserRepository(db)

	mock.ExpectExec(`UPDATE users SET email = \$2, password_hash = \$3, is_active = \$4, role_id = \$5, updated_at = \$6 WHERE id = \$1`).
		WithArgs("u-1", "new@example.com", "hash", true, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(`UPDATE users`).
		WithArgs("u-9", "x@example.com", "hash", true, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repository.Update(context.Background(), &auth.User{ID: "u-1", Email: "new@example.com", PasswordHash: "hash", IsActive: true}))

	err := repository.Update(context.Background(), &auth.User{ID: "u-9", Email: "x@example.com", PasswordHash: "hash", IsActive: true})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

/*
TestRoleRepository covers lookup, listing and driver failures.
*/
func TestRoleRepository(t *testing.T) {
	db, mock := newMock(t)
	repository := auth.NewRoleRepository(db)
	columns := []string{"id", "name", "description", "created_at", "updated_at"}
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM roles WHERE name = \$1`).
		WithArgs("viewer").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("r-1", "viewer", "Read-only", now, now))

	mock.ExpectQuery(`SELECT .+ FROM roles ORDER BY name`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("r-2", "admin", "Administrator", now, now).
			AddRow("r-1", "viewer", "Read-only", now, now))

	mock.ExpectQuery(`SELECT .+ FROM roles WHERE id = \$1`).
		WithArgs("r-1").
		WillReturnError(errors.New("connection reset by peer"))

	mock.ExpectExec(`INSERT INTO roles`).
		WithArgs("r-3", "clerk", "Counts", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	viewer, err := repository.FindByName(context.Background(), "viewer")
	require.NoError(t, err)
	assert.Equal(t, "r-1", viewer.ID)

	roles, err := repository.List(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "admin", roles[0].Name)

	_, err = repository.FindByID(context.Background(), "r-1")
	assert.True(t, apperr.IsKind(err, apperr.KindDatabase))

	require.NoError(t, repository.Create(context.Background(), &auth.Role{ID: "r-3", Name: "clerk", Description: "Counts"}))
}

/*
TestRoleLookup resolves names through the repository for the RBAC engine.
*/
func TestRoleLookup(t *testing.T) {
	roles := auth.NewMemoryRoleRepository()
	require.NoError(t, roles.Create(context.Background(), &auth.Role{ID: "r-7", Name: "clerk"}))

	lookup := auth.RoleLookup(roles)

	name, err := lookup.RoleNameByID(context.Background(), "r-7")
	require.NoError(t, err)
	assert.Equal(t, "clerk", name)

	_, err = lookup.RoleNameByID(context.Background(), "r-404")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
