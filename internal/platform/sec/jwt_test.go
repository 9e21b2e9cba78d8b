// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/stockroom/internal/platform/sec"
)

const testSecret = "test-secret-key-with-at-least-32-bytes!"

// fakeClock is a settable time source.
type fakeClock struct{ now time.Time }

func (clock *fakeClock) Now() time.Time { return clock.now }

func newTokenService(t *testing.T, clock *fakeClock) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(testSecret, sec.TokenOptions{
		Issuer:     "stockroom.test",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Clock:      clock.Now,
	})
	require.NoError(t, err)
	return service
}

/*
TestTokenService_AccessRoundTrip verifies claims survive issuance and verification before expiry.
*/
func TestTokenService_AccessRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	service := newTokenService(t, clock)
	roleID := "role-clerk"

	token, err := service.CreateAccessToken(sec.Subject{ID: "user-1", Username: "alice", RoleID: &roleID}, 0)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	clock.now = clock.now.Add(29 * time.Minute)
	claims, err := service.VerifyAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	require.NotNil(t, claims.RoleID)
	assert.Equal(t, roleID, *claims.RoleID)
	assert.Equal(t, sec.TokenAccess, claims.Type)
	assert.NotEmpty(t, claims.ID)

	identity := claims.Identity()
	assert.Equal(t, "user-1", identity.SubjectID)
	assert.True(t, identity.HasRole())
}

/*
TestTokenService_Expired verifies a token is rejected once its ttl has elapsed.
*/
func TestTokenService_Expired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	service := newTokenService(t, clock)

	token, err := service.CreateAccessToken(sec.Subject{ID: "user-1", Username: "alice"}, 5*time.Minute)
	require.NoError(t, err)

	clock.now = clock.now.Add(5*time.Minute + time.Second)
	_, err = service.VerifyToken(token)

	require.Error(t, err)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
	assert.NotErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_TypeConfusion ensures access and refresh tokens are never interchangeable.
*/
func TestTokenService_TypeConfusion(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	service := newTokenService(t, clock)
	subject := sec.Subject{ID: "user-1", Username: "alice"}

	refresh, err := service.CreateRefreshToken(subject)
	require.NoError(t, err)
	access, err := service.CreateAccessToken(subject, 0)
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, sec.ErrTokenType)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)

	_, err = service.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, sec.ErrTokenType)

	claims, err := service.VerifyRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, sec.TokenRefresh, claims.Type)
	assert.Nil(t, claims.RoleID)
}

/*
TestTokenService_Invalid covers tampering, foreign secrets and algorithm downgrade.
*/
func TestTokenService_Invalid(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	service := newTokenService(t, clock)

	valid, err := service.CreateAccessToken(sec.Subject{ID: "user-1", Username: "alice"}, 0)
	require.NoError(t, err)

	other, err := sec.NewTokenService("another-secret-key-with-32-bytes-or-more", sec.TokenOptions{Issuer: "stockroom.test"})
	require.NoError(t, err)
	foreign, err := other.CreateAccessToken(sec.Subject{ID: "user-1", Username: "alice"}, 0)
	require.NoError(t, err)

	// HS512 signed with the right secret must still be rejected.
	downgraded, err := jwt.NewWithClaims(jwt.SigningMethodHS512, sec.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "stockroom.test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Type: sec.TokenAccess,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, sec.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Type:             sec.TokenAccess,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"tampered_signature", valid[:len(valid)-2] + "xx"},
		{"foreign_secret", foreign},
		{"algorithm_downgrade", downgraded},
		{"alg_none", none},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.VerifyToken(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, sec.ErrTokenInvalid)
		})
	}
}

/*
TestNewTokenService_EmptySecret refuses to build a signer without a key.
*/
func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := sec.NewTokenService("", sec.TokenOptions{})
	assert.Error(t, err)
}
