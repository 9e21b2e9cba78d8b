// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
)

// SQLSTATE codes mapped to client errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Wrap inspects a database error and classifies it as an [apperr.AppError].
//
//   - no rows: NOT_FOUND_ERROR for resource
//   - unique violation: CONFLICT_ERROR naming the constraint
//   - anything else: DATABASE_ERROR with the original error as cause
//
// action names the failed operation (e.g. "find user by id") for logs only.
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	// 2. Constraint violations
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		switch pgError.Code {
		case codeUniqueViolation:
			return apperr.Conflict(fmt.Sprintf("%s already exists", resource)).
				WithDetail("constraint", pgError.ConstraintName)
		case codeForeignKeyViolation:
			return apperr.Validation(fmt.Sprintf("%s references a missing record", resource)).
				WithDetail("constraint", pgError.ConstraintName)
		}
	}

	// 3. Everything else is a storage failure
	return apperr.Database(fmt.Sprintf("Failed to %s", action), err)
}
