// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
)

// # Hash Algorithms

// Algorithm selects the one-way function used for new hashes.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

const argon2idPrefix = "$argon2id$"

// PasswordOptions configures a [PasswordService].
type PasswordOptions struct {
	Algorithm  Algorithm
	BcryptCost int

	// Pool executes hashing off the request goroutine. A nil pool hashes inline.
	Pool *WorkerPool
}

// PasswordService hashes and verifies passwords.
//
// Verification understands both algorithms regardless of which one is configured
// for new hashes, so switching algorithms does not lock out existing users.
type PasswordService struct {
	algorithm Algorithm
	cost      int
	pool      *WorkerPool
}

// NewPasswordService creates a new PasswordService.
func NewPasswordService(options PasswordOptions) *PasswordService {
	service := &PasswordService{
		algorithm: options.Algorithm,
		cost:      options.BcryptCost,
		pool:      options.Pool,
	}
	if service.algorithm == "" {
		service.algorithm = AlgorithmBcrypt
	}
	if service.cost < bcrypt.MinCost || service.cost > bcrypt.MaxCost {
		service.cost = bcrypt.DefaultCost
	}
	return service
}

// Algorithm returns the algorithm used for new hashes.
func (service *PasswordService) Algorithm() Algorithm { return service.algorithm }

// Hash returns a salted one-way hash of password. Every call uses a fresh salt.
func (service *PasswordService) Hash(ctx context.Context, password string) (string, error) {
	return submit(ctx, service.pool, func() (string, error) {
		if service.algorithm == AlgorithmArgon2id {
			hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
			if err != nil {
				return "", fmt.Errorf("sec: failed to hash password: %w", err)
			}
			return hash, nil
		}

		hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), service.cost)
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.Validation("Password must be at most 72 bytes long",
				apperr.FieldError{Field: "password", Message: "Password must be at most 72 bytes long"})
		}
		if err != nil {
			return "", fmt.Errorf("sec: failed to hash password: %w", err)
		}
		return string(hashedBytes), nil
	})
}

// Verify compares password with hash. A malformed hash or an aborted context yields false.
func (service *PasswordService) Verify(ctx context.Context, password, hash string) bool {
	match, err := submit(ctx, service.pool, func() (bool, error) {
		return verifyHash(password, hash), nil
	})
	return err == nil && match
}

func verifyHash(password, hash string) bool {
	if strings.HasPrefix(hash, argon2idPrefix) {
		match, err := argon2id.ComparePasswordAndHash(password, hash)
		return err == nil && match
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
