// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing, password
// scoring) from the domain logic. Its services are stateless with respect to
// request data: they read an immutable secret and immutable tables only, so they
// are safe for concurrent use without locking.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/stockroom/pkg/uuid"
)

// # Token Types

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// # Errors

var (
	// ErrTokenInvalid is returned for malformed tokens, bad signatures and pinned-algorithm violations.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired is returned when the token's exp claim has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenType is returned when a valid token is presented for the wrong use.
	ErrTokenType = fmt.Errorf("%w: unexpected token type", ErrTokenInvalid)
)

// # Claims

// Claims is the payload embedded inside every token issued by [TokenService].
//
// sub, exp, iat, iss and jti live in the registered claims.
type Claims struct {
	jwt.RegisteredClaims

	Username string    `json:"username"`
	RoleID   *string   `json:"role_id"`
	Type     TokenType `json:"type"`
}

// Identity converts verified claims into the per-request identity.
func (c *Claims) Identity() *Identity {
	return &Identity{SubjectID: c.Subject, Username: c.Username, RoleID: c.RoleID}
}

// Subject is what a token is issued for.
type Subject struct {
	ID       string
	Username string
	RoleID   *string
}

// # Token Service

// TokenOptions configures a [TokenService].
type TokenOptions struct {
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clock overrides time.Now, mainly for expiry tests.
	Clock func() time.Time
}

// TokenService issues and verifies HS256 tokens signed with one shared secret.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

// NewTokenService creates a new TokenService. The secret must not be empty.
func NewTokenService(secret string, options TokenOptions) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("sec: token secret must not be empty")
	}

	service := &TokenService{
		secret:     []byte(secret),
		issuer:     options.Issuer,
		accessTTL:  options.AccessTTL,
		refreshTTL: options.RefreshTTL,
		now:        options.Clock,
	}

	if service.accessTTL <= 0 {
		service.accessTTL = 30 * time.Minute
	}
	if service.refreshTTL <= 0 {
		service.refreshTTL = 7 * 24 * time.Hour
	}
	if service.now == nil {
		service.now = time.Now
	}

	// Algorithm pinning: a token declaring anything but HS256 is rejected before the key is used.
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	}
	if service.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(service.issuer))
	}
	service.parser = jwt.NewParser(parserOptions...)

	return service, nil
}

// AccessTTL returns the configured access-token lifetime.
func (service *TokenService) AccessTTL() time.Duration { return service.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (service *TokenService) RefreshTTL() time.Duration { return service.refreshTTL }

// CreateAccessToken signs an access token. A non-positive ttl uses the configured default.
func (service *TokenService) CreateAccessToken(subject Subject, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = service.accessTTL
	}
	return service.sign(subject, subject.RoleID, TokenAccess, ttl)
}

// CreateRefreshToken signs a refresh token with the configured refresh lifetime.
// Refresh tokens never carry a role.
func (service *TokenService) CreateRefreshToken(subject Subject) (string, error) {
	return service.sign(subject, nil, TokenRefresh, service.refreshTTL)
}

func (service *TokenService) sign(subject Subject, roleID *string, tokenType TokenType, ttl time.Duration) (string, error) {
	issuedAt := service.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			Subject:   subject.ID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		Username: subject.Username,
		RoleID:   roleID,
		Type:     tokenType,
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign %s token: %w", tokenType, err)
	}

	return signedToken, nil
}

// VerifyToken checks signature, algorithm and expiry, returning the decoded claims.
//
// The token type is not checked here; use [TokenService.VerifyAccessToken] or
// [TokenService.VerifyRefreshToken] at call sites that expect a specific use.
func (service *TokenService) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := service.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return service.secret, nil
	})

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if claims.Subject == "" || (claims.Type != TokenAccess && claims.Type != TokenRefresh) {
		return nil, fmt.Errorf("%w: missing subject or type", ErrTokenInvalid)
	}

	return claims, nil
}

// VerifyAccessToken verifies the token and requires type "access".
func (service *TokenService) VerifyAccessToken(tokenString string) (*Claims, error) {
	return service.verifyType(tokenString, TokenAccess)
}

// VerifyRefreshToken verifies the token and requires type "refresh".
func (service *TokenService) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return service.verifyType(tokenString, TokenRefresh)
}

func (service *TokenService) verifyType(tokenString string, expected TokenType) (*Claims, error) {
	claims, err := service.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != expected {
		return nil, ErrTokenType
	}
	return claims, nil
}
