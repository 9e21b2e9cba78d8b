// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error taxonomy for Stockroom.

Every failure that can leave the service layer is classified by a closed [Kind].
The kind fixes the HTTP status and the machine-readable code, so transport code
never has to guess how to present an error.

Architecture:

  - Kind: A closed enum (Validation, Authentication, Authorization, NotFound,
    Conflict, RateLimit, Database, ExternalService, Configuration, Internal).
  - AppError: Kind + client-safe message + structured details + server-side cause.
  - Mapping: [Kind.Status] and [Kind.Code] are the single source of truth for the
    wire representation.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// # Error Kinds

// Kind classifies an [AppError]. The set is closed: adding a kind is a code change.
type Kind uint8

const (
	// KindInternal is the zero value so an unclassified error is never reported as a client error.
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindRateLimit
	KindDatabase
	KindExternalService
	KindConfiguration
)

var kindTable = [...]struct {
	code   string
	status int
}{
	KindInternal:        {"INTERNAL_SERVER_ERROR", http.StatusInternalServerError},
	KindValidation:      {"VALIDATION_ERROR", http.StatusBadRequest},
	KindAuthentication:  {"AUTHENTICATION_ERROR", http.StatusUnauthorized},
	KindAuthorization:   {"AUTHORIZATION_ERROR", http.StatusForbidden},
	KindNotFound:        {"NOT_FOUND_ERROR", http.StatusNotFound},
	KindConflict:        {"CONFLICT_ERROR", http.StatusConflict},
	KindRateLimit:       {"RATE_LIMIT_ERROR", http.StatusTooManyRequests},
	KindDatabase:        {"DATABASE_ERROR", http.StatusInternalServerError},
	KindExternalService: {"EXTERNAL_SERVICE_ERROR", http.StatusBadGateway},
	KindConfiguration:   {"CONFIGURATION_ERROR", http.StatusInternalServerError},
}

// Code returns the machine-readable identifier sent to clients.
func (k Kind) Code() string {
	if int(k) >= len(kindTable) {
		return kindTable[KindInternal].code
	}
	return kindTable[k].code
}

// Status returns the HTTP status code associated with the kind.
func (k Kind) Status() int {
	if int(k) >= len(kindTable) {
		return kindTable[KindInternal].status
	}
	return kindTable[k].status
}

// ServerSide reports whether the kind describes a failure on our side of the wire.
// Messages of server-side errors are masked in production.
func (k Kind) ServerSide() bool {
	switch k {
	case KindDatabase, KindExternalService, KindConfiguration, KindInternal:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return strings.ToLower(strings.TrimSuffix(k.Code(), "_ERROR"))
}

// # Error Type

// AppError is the canonical error type for the Stockroom API.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Kind selects status code and wire code.
	Kind Kind
	// Message is a human-readable description safe to return to the client.
	Message string
	// Details is the structured payload rendered under "details". Never nil once built.
	Details map[string]any
	// Cause is the underlying error, used for server-side logging only.
	Cause error
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// Code is a shortcut for e.Kind.Code().
func (e *AppError) Code() string { return e.Kind.Code() }

// HTTPStatus is a shortcut for e.Kind.Status().
func (e *AppError) HTTPStatus() int { return e.Kind.Status() }

// WithDetail returns e after setting a single detail entry.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func newError(kind Kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Details: map[string]any{}, Cause: cause}
}

// # Client Errors (4xx)

// Validation creates a 400 [AppError] with optional per-field details.
func Validation(message string, fields ...FieldError) *AppError {
	appError := newError(KindValidation, message, nil)
	if len(fields) > 0 {
		appError.Details["fields"] = fields
	}
	return appError
}

// Authentication creates a 401 [AppError].
func Authentication(message string) *AppError {
	return newError(KindAuthentication, message, nil)
}

// Authorization creates a 403 [AppError].
func Authorization(message string) *AppError {
	return newError(KindAuthorization, message, nil)
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Role", "clerk") // Returns "Role not found: clerk"
func NotFound(resource string, id ...string) *AppError {
	message := resource + " not found"
	appError := newError(KindNotFound, message, nil).WithDetail("resource", resource)
	if len(id) > 0 && id[0] != "" {
		appError.Message = message + ": " + id[0]
		appError.Details["resource_id"] = id[0]
	}
	return appError
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(message string) *AppError {
	return newError(KindConflict, message, nil)
}

// RateLimited creates a 429 [AppError] carrying the retry delay in seconds.
func RateLimited(retryAfterSeconds int) *AppError {
	return newError(KindRateLimit, "Rate limit exceeded", nil).WithDetail("retry_after", retryAfterSeconds)
}

// # Server Errors (5xx)

// Database creates a 500 [AppError] for a failed storage collaborator.
func Database(message string, cause error) *AppError {
	return newError(KindDatabase, message, cause)
}

// ExternalService creates a 502 [AppError] naming the failing upstream.
func ExternalService(service, message string, cause error) *AppError {
	return newError(KindExternalService, fmt.Sprintf("%s service error: %s", service, message), cause).
		WithDetail("service", service)
}

// Configuration creates an [AppError] for an invalid startup configuration.
func Configuration(message string) *AppError {
	return newError(KindConfiguration, message, nil)
}

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
func Internal(cause error) *AppError {
	message := "An unexpected error occurred"
	if cause != nil {
		message = cause.Error()
	}
	return newError(KindInternal, message, cause)
}

// # Helpers

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return nil
}

// Normalize returns err as an [*AppError], classifying foreign errors as Internal.
func Normalize(err error) *AppError {
	if err == nil {
		return nil
	}
	if appError := As(err); appError != nil {
		return appError
	}
	return Internal(err)
}

// IsKind reports whether err carries an [*AppError] of the given kind.
func IsKind(err error, kind Kind) bool {
	appError := As(err)
	return appError != nil && appError.Kind == kind
}
