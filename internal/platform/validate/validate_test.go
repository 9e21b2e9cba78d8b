// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/validate"
)

func fieldErrors(t *testing.T, err error) []apperr.FieldError {
	t.Helper()

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code())

	fields, ok := appError.Details["fields"].([]apperr.FieldError)
	require.True(t, ok)
	return fields
}

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{"valid_string", "Stockroom", false},
		{"empty_string", "", true},
		{"whitespace_only", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := &validate.Validator{}
			validator.Required("name", tt.value)

			if !tt.hasError {
				assert.False(t, validator.HasErrors())
				assert.Nil(t, validator.Err())
				return
			}

			assert.True(t, validator.HasErrors())
			fields := fieldErrors(t, validator.Err())
			assert.Equal(t, "name", fields[0].Field)
		})
	}
}

/*
TestValidator_SecurityRules checks the username, email and password rules.
*/
func TestValidator_SecurityRules(t *testing.T) {
	tests := []struct {
		name   string
		apply  func(*validate.Validator)
		failed int
	}{
		{"good_username", func(v *validate.Validator) { v.Username("username", "newuser123") }, 0},
		{"short_reserved_username", func(v *validate.Validator) { v.Username("username", "_") }, 2},
		{"good_email", func(v *validate.Validator) { v.StrictEmail("email", "new@example.com") }, 0},
		{"double_dot_email", func(v *validate.Validator) { v.StrictEmail("email", "a..b@example.com") }, 1},
		{"strong_password", func(v *validate.Validator) { v.Password("password", "SecurePassword123!") }, 0},
		{"weak_password", func(v *validate.Validator) { v.Password("password", "password") }, 1},
		{"role_name", func(v *validate.Validator) { v.OneOf("role", "owner", "admin", "viewer") }, 1},
		{"uuid", func(v *validate.Validator) { v.UUID("id", "0195f3c2-7a4e-7c1d-9b2a-3f4e5d6c7b8a") }, 0},
		{"not_uuid", func(v *validate.Validator) { v.UUID("id", "42") }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := &validate.Validator{}
			tt.apply(validator)

			if tt.failed == 0 {
				assert.NoError(t, validator.Err())
				return
			}
			assert.Len(t, fieldErrors(t, validator.Err()), tt.failed)
		})
	}
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	validator := &validate.Validator{}

	err := validator.
		Required("username", "").
		MinLen("username", "a", 5).
		Email("email", "not-an-email").
		Custom("new_password", true, "New password must differ from the current one").
		Err()

	require.Error(t, err)
	fields := fieldErrors(t, err)
	require.Len(t, fields, 4)
	assert.Equal(t, "Invalid email format", fields[2].Message)
}
