// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, header names, security policy strings and cache
prefixes that are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Headers: Correlation and proxy header names.
  - Security: Hardening header values and the CSP strings.
  - Rate Limiting: Window defaults and sweep cadence.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "stockroom-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Headers

const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
	HeaderRetryAfter    = "Retry-After"
	HeaderAuthenticate  = "WWW-Authenticate"
)

// # Security Headers

const (
	ContentTypeOptions = "nosniff"
	FrameOptions       = "DENY"
	XSSProtection      = "1; mode=block"
	ReferrerPolicy     = "strict-origin-when-cross-origin"
	PermissionsPolicy  = "geolocation=(), microphone=(), camera=()"
	StrictTransport    = "max-age=31536000; includeSubDomains"

	// ContentSecurityPolicy is served outside production.
	ContentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline' 'unsafe-eval'; " +
		"style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self'; connect-src 'self';"

	// ProductionContentSecurityPolicy additionally forbids framing.
	ProductionContentSecurityPolicy = ContentSecurityPolicy + " frame-ancestors 'none';"
)

// # Rate Limiting

const (
	// DefaultRateLimit is the per-key ceiling used when no configuration is supplied.
	DefaultRateLimit = 10

	// DefaultRateLimitWindow is the length of one fixed window.
	DefaultRateLimitWindow = 60 * time.Second

	// RateLimitSweepInterval is how often stale windows are evicted from memory.
	RateLimitSweepInterval = 1 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "stockroom.api"

	// TokenTypeBearer is the token_type returned to clients.
	TokenTypeBearer = "bearer"

	// CorrelationIDMaxLength bounds client-supplied correlation identifiers.
	CorrelationIDMaxLength = 128
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixRateLimit      = "ratelimit:"
	RedisPrefixRevokedRefresh = "auth:revoked_refresh:"

	// Stream holding audit events when Redis is configured. Trimmed approximately.
	RedisAuditStream       = "audit:events"
	RedisAuditStreamMaxLen = 100_000
)
