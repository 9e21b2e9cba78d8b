// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines typed context keys used by middleware and handlers.
//
// # Safety
//
// It is used to store and retrieve per-request values (identity, correlation ID, logger).
// Using a private, unexported type for keys prevents collisions with third-party
// packages that might also use context for storage.
package ctxkey

// key is an unexported type used for context keys to ensure type safety.
type key string

const (
	// KeyCorrelationID is the context key for the X-Correlation-ID value.
	KeyCorrelationID key = "correlation_id"

	// KeyIdentity is the context key for the authenticated [sec.Identity].
	KeyIdentity key = "identity"

	// KeyPermissions is the context key for the resolved permission set of the identity.
	KeyPermissions key = "permissions"

	// KeyLogger is the context key for the per-request [*log/slog.Logger].
	KeyLogger key = "logger"

	// KeyRequestState is the context key for the mutable per-request state shared with outer stages.
	KeyRequestState key = "request_state"

	// KeyExposeErrors is the context key for the error masking policy.
	KeyExposeErrors key = "expose_errors"
)
