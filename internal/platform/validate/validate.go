// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// Services build one Validator per operation and call Err at the end of the
// chain. Handlers never validate, storage never validates. Security-sensitive
// rules (usernames, emails, password strength) delegate to [sanitize] and [sec]
// so the HTTP flows and the CLI apply the same policy.
package validate

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/sanitize"
	"github.com/taibuivan/stockroom/internal/platform/sec"
	"github.com/taibuivan/stockroom/pkg/uuid"
)

// ErrInvalidJSON is returned when the request body cannot be decoded.
var ErrInvalidJSON = apperr.Validation("Invalid JSON payload")

// Validator collects field-level validation errors via a fluent, chainable API.
//
// Validator is not safe for concurrent use.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (validator *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		validator.add(field, "This field is required")
	}
	return validator
}

// MaxLen fails if the Unicode character count exceeds max.
func (validator *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		validator.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return validator
}

// MinLen fails if the Unicode character count is below min.
func (validator *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		validator.add(field, fmt.Sprintf("Minimum %d characters", min))
	}
	return validator
}

// StrictEmail fails if the value is not an acceptable mailbox address.
func (validator *Validator) StrictEmail(field, value string) *Validator {
	if !sanitize.ValidateEmail(value) {
		validator.add(field, "Invalid email format")
	}
	return validator
}

// Username applies every username rule and records each broken one.
func (validator *Validator) Username(field, value string) *Validator {
	for _, problem := range sanitize.ValidateUsername(value) {
		validator.add(field, problem)
	}
	return validator
}

// Password fails when the strength report is not acceptable.
// The feedback of the report becomes the message.
func (validator *Validator) Password(field, value string) *Validator {
	report := sec.AnalyzeStrength(value)
	if !report.IsAcceptable {
		validator.add(field, "Password is too weak: "+strings.Join(report.Feedback, "; "))
	}
	return validator
}

// UUID fails if the value is not a valid UUID string.
func (validator *Validator) UUID(field, value string) *Validator {
	if !uuid.IsValid(value) {
		validator.add(field, "Must be a valid UUID")
	}
	return validator
}

// OneOf fails if the value is not in the allowed set of strings.
func (validator *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if !slices.Contains(allowed, value) {
		validator.add(field, fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", ")))
	}
	return validator
}

// Custom adds a failure with a custom message if the condition is true.
//
//	validator.Custom("new_password", next == current, "New password must differ from the current one")
func (validator *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		validator.add(field, message)
	}
	return validator
}

// Err returns a VALIDATION_ERROR listing every failed rule under details.fields,
// or nil if all rules passed.
func (validator *Validator) Err() error {
	if len(validator.errs) == 0 {
		return nil
	}
	return apperr.Validation("Validation failed", validator.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (validator *Validator) HasErrors() bool {
	return len(validator.errs) > 0
}

func (validator *Validator) add(field, message string) {
	validator.errs = append(validator.errs, apperr.FieldError{Field: field, Message: message})
}
