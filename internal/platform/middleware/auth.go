// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/constants"
	"github.com/taibuivan/stockroom/internal/platform/ctxutil"
	"github.com/taibuivan/stockroom/internal/platform/metrics"
	"github.com/taibuivan/stockroom/internal/platform/rbac"
	"github.com/taibuivan/stockroom/internal/platform/respond"
	"github.com/taibuivan/stockroom/internal/platform/sec"
)

// TokenVerifier is the part of [sec.TokenService] the pipeline needs.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*sec.Claims, error)
}

// SubjectResolver reloads the account behind a verified token.
//
// It returns an [apperr] AUTHENTICATION_ERROR when the subject is unknown or
// inactive; any other error is a collaborator failure.
type SubjectResolver interface {
	ResolveSubject(ctx context.Context, subjectID string) (*sec.Identity, error)
}

// SubjectResolverFunc adapts a plain function to [SubjectResolver].
type SubjectResolverFunc func(ctx context.Context, subjectID string) (*sec.Identity, error)

// ResolveSubject implements [SubjectResolver].
func (fn SubjectResolverFunc) ResolveSubject(ctx context.Context, subjectID string) (*sec.Identity, error) {
	return fn(ctx, subjectID)
}

// DefaultPublicPaths are served without a token. Matching is exact.
var DefaultPublicPaths = []string{
	"/",
	"/health",
	"/ready",
	"/docs",
	"/openapi.json",
	"/redoc",
	"/metrics",
	"/api/v1/auth/login",
	"/api/v1/auth/register",
	"/api/v1/auth/refresh",
	"/api/v1/auth/validate-password",
	"/api/v1/auth/generate-password",
}

// Failure reasons, used as the metrics label.
const (
	authReasonMissing = "missing"
	authReasonScheme  = "scheme"
	authReasonExpired = "expired"
	authReasonInvalid = "invalid"
	authReasonSubject = "subject"
)

func rejectAuthentication(writer http.ResponseWriter, request *http.Request, registry *metrics.Metrics, reason, message string) {
	registry.ObserveAuthFailure(reason)
	ctx := request.Context()
	ctxutil.GetLogger(ctx).WarnContext(ctx, "authentication_failed", slog.String("reason", reason))

	writer.Header().Set(constants.HeaderAuthenticate, "Bearer")
	respond.Error(writer, request, apperr.Authentication(message))
}

// # Authentication

// Authenticate requires a valid access token on every non-public path.
//
// # Flow
//  1. Exact-match public paths pass untouched.
//  2. 'Authorization: Bearer <token>' must be present and well formed.
//  3. The token must verify as an access token.
//  4. The resulting [*sec.Identity] is attached to the context, and its subject
//     is published to the request state for the Logging stage.
//
// Every failure is a 401 with 'WWW-Authenticate: Bearer'.
func Authenticate(verifier TokenVerifier, publicPaths []string, registry *metrics.Metrics) func(http.Handler) http.Handler {
	public := make(map[string]struct{}, len(publicPaths))
	for _, path := range publicPaths {
		public[path] = struct{}{}
	}

	reject := func(writer http.ResponseWriter, request *http.Request, reason, message string) {
		rejectAuthentication(writer, request, registry, reason, message)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Public Access ──────────────────────────────────────────────
			if _, ok := public[request.URL.Path]; ok {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			authHeader := request.Header.Get(constants.HeaderAuthorization)
			if authHeader == "" {
				reject(writer, request, authReasonMissing, "Missing authorization header")
				return
			}

			scheme, token, _ := strings.Cut(strings.TrimSpace(authHeader), " ")
			token = strings.TrimSpace(token)
			if !strings.EqualFold(scheme, "bearer") || token == "" {
				reject(writer, request, authReasonScheme, "Invalid authentication scheme")
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyAccessToken(token)
			if errors.Is(err, sec.ErrTokenExpired) {
				reject(writer, request, authReasonExpired, "Token has expired")
				return
			}
			if err != nil {
				reject(writer, request, authReasonInvalid, "Invalid token")
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			identity := claims.Identity()
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("user_id", identity.SubjectID)))
			if state := ctxutil.GetRequestState(ctx); state != nil {
				state.SubjectID = identity.SubjectID
			}

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Subject Resolution

// ResolveSubject reloads the caller attached by [Authenticate] and replaces the
// token identity with the stored one, so a deactivated account or a removed role
// takes effect on the next request rather than when the token expires.
//
// Requests without an identity (public paths) pass untouched. Must be registered
// AFTER [Authenticate].
func ResolveSubject(resolver SubjectResolver, registry *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()
			identity := ctxutil.GetIdentity(ctx)
			if identity == nil {
				next.ServeHTTP(writer, request)
				return
			}

			stored, err := resolver.ResolveSubject(ctx, identity.SubjectID)
			if appError := apperr.As(err); appError != nil && appError.Kind == apperr.KindAuthentication {
				rejectAuthentication(writer, request, registry, authReasonSubject, appError.Message)
				return
			}
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			next.ServeHTTP(writer, request.WithContext(ctxutil.WithIdentity(ctx, stored)))
		})
	}
}

// # Authorization

// RequireGuard runs guard before the handler. The context returned by the guard,
// which carries the resolved permissions, is passed on.
//
// Must be registered in the router AFTER [Authenticate].
func RequireGuard(guard rbac.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx, err := guard.Check(request.Context())
			if err != nil {
				respond.Error(writer, request, err)
				return
			}
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}
