// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
)

// MemoryUserRepository is an in-process [UserRepository] with the same
// uniqueness rules as the users table. It backs tests and CLI dry runs.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]User
}

// NewMemoryUserRepository creates an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]User)}
}

func (repository *MemoryUserRepository) find(match func(User) bool) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, user := range repository.users {
		if match(user) {
			found := user
			return &found, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repository *MemoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	return repository.find(func(user User) bool { return user.ID == id })
}

func (repository *MemoryUserRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	return repository.find(func(user User) bool { return user.Username == username })
}

func (repository *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	return repository.find(func(user User) bool { return user.Email == email })
}

func (repository *MemoryUserRepository) Create(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, existing := range repository.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return apperr.Conflict("User already exists")
		}
	}
	repository.users[user.ID] = *user
	return nil
}

func (repository *MemoryUserRepository) Update(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if _, ok := repository.users[user.ID]; !ok {
		return apperr.NotFound("User", user.ID)
	}
	repository.users[user.ID] = *user
	return nil
}

// MemoryRoleRepository is an in-process [RoleRepository].
type MemoryRoleRepository struct {
	mu    sync.Mutex
	roles map[string]Role
}

// NewMemoryRoleRepository creates an empty repository.
func NewMemoryRoleRepository() *MemoryRoleRepository {
	return &MemoryRoleRepository{roles: make(map[string]Role)}
}

func (repository *MemoryRoleRepository) FindByID(_ context.Context, id string) (*Role, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	role, ok := repository.roles[id]
	if !ok {
		return nil, apperr.NotFound("Role")
	}
	return &role, nil
}

func (repository *MemoryRoleRepository) FindByName(_ context.Context, name string) (*Role, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, role := range repository.roles {
		if role.Name == name {
			found := role
			return &found, nil
		}
	}
	return nil, apperr.NotFound("Role")
}

func (repository *MemoryRoleRepository) Create(_ context.Context, role *Role) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, existing := range repository.roles {
		if existing.Name == role.Name {
			return apperr.Conflict("Role already exists")
		}
	}
	repository.roles[role.ID] = *role
	return nil
}

func (repository *MemoryRoleRepository) Update(_ context.Context, role *Role) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.roles[role.ID] = *role
	return nil
}

func (repository *MemoryRoleRepository) List(_ context.Context) ([]*Role, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	list := make([]*Role, 0, len(repository.roles))
	for _, role := range repository.roles {
		found := role
		list = append(list, &found)
	}
	slices.SortFunc(list, func(a, b *Role) int { return strings.Compare(a.Name, b.Name) })
	return list, nil
}
