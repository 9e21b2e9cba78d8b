// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/stockroom/internal/platform/metrics"
	"github.com/taibuivan/stockroom/internal/platform/ratelimit"
)

// Options wires the stages of [Pipeline].
type Options struct {
	Logger     *slog.Logger
	Production bool

	// TrustProxy honours X-Real-IP / X-Forwarded-For when keying clients.
	TrustProxy bool

	AllowedOrigins []string
	MaxBodyBytes   int64

	Limiter     ratelimit.Store
	Verifier    TokenVerifier
	PublicPaths []string

	// Subjects, when set, reloads the caller after token verification.
	Subjects SubjectResolver

	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// Pipeline returns the request stages in the order they must be mounted,
// outermost first. A nil Limiter skips rate limiting; a nil Subjects trusts
// the token claims as they are.
func Pipeline(options Options) []func(http.Handler) http.Handler {
	publicPaths := options.PublicPaths
	if publicPaths == nil {
		publicPaths = DefaultPublicPaths
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := options.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	stages := []func(http.Handler) http.Handler{
		Correlation(),
		Logging(logger, options.TrustProxy),
		options.Metrics.Instrument,
		ErrorNormalization(options.Production),
		SecurityHeaders(options.Production),
		CORS(options.AllowedOrigins, options.Production),
		BodyLimit(maxBody),
	}
	if options.Limiter != nil {
		stages = append(stages, RateLimit(options.Limiter, options.TrustProxy, options.Metrics))
	}
	stages = append(stages, Authenticate(options.Verifier, publicPaths, options.Metrics))
	if options.Subjects != nil {
		stages = append(stages, ResolveSubject(options.Subjects, options.Metrics))
	}
	return stages
}
