// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/audit"
	"github.com/taibuivan/stockroom/internal/platform/constants"
	"github.com/taibuivan/stockroom/internal/platform/rbac"
	"github.com/taibuivan/stockroom/internal/platform/sec"
	"github.com/taibuivan/stockroom/internal/users/auth"
	"github.com/taibuivan/stockroom/pkg/pointer"
)

const (
	strongPassword = "Stockroom#2026Ab"
	newPassword    = "Inventory!Count9x"
)

type fixture struct {
	service *auth.Service
	users   *auth.MemoryUserRepository
	roles   *auth.MemoryRoleRepository
	sink    *audit.MemorySink
	tokens  *sec.TokenService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tokens, err := sec.NewTokenService(strings.Repeat("s", 32), sec.TokenOptions{Issuer: constants.AuthIssuer, Clock: clock})
	require.NoError(t, err)

	fixture := &fixture{
		users:  auth.NewMemoryUserRepository(),
		roles:  auth.NewMemoryRoleRepository(),
		sink:   audit.NewMemorySink(),
		tokens: tokens,
	}
	fixture.service = auth.NewService(auth.Options{
		Users:     fixture.users,
		Roles:     fixture.roles,
		Passwords: sec.NewPasswordService(sec.PasswordOptions{BcryptCost: 4}),
		Tokens:    tokens,
		Audit:     audit.NewLogger(audit.Options{Sink: fixture.sink, Clock: clock}),
		Clock:     clock,
	})
	return fixture
}

func (fixture *fixture) register(t *testing.T, username string) *auth.TokenResponse {
	t.Helper()
	response, err := fixture.service.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: strongPassword,
	})
	require.NoError(t, err)
	return response
}

func requireKind(t *testing.T, err error, kind apperr.Kind, message string) {
	t.Helper()
	appError := apperr.As(err)
	require.NotNil(t, appError, "expected an AppError, got %v", err)
	assert.Equal(t, kind, appError.Kind)
	assert.Equal(t, message, appError.Message)
}

// # Registration

/*
TestRegister_Success issues a token pair and grants the default role.
*/
func TestRegister_Success(t *testing.T) {
	fixture := newFixture(t)

	response, err := fixture.service.Register(context.Background(), auth.RegisterInput{
		Username: "  alice\x00 ",
		Email:    "alice@example.com",
		Password: strongPassword,
	})
	require.NoError(t, err)

	assert.Equal(t, "bearer", response.TokenType)
	assert.Equal(t, 1800, response.ExpiresIn)
	assert.Equal(t, "alice", response.User.Username)
	assert.True(t, response.User.IsActive)
	assert.NotEqual(t, strongPassword, response.User.PasswordHash)

	viewer, err := fixture.roles.FindByName(context.Background(), rbac.RoleViewer)
	require.NoError(t, err)
	require.NotNil(t, response.User.RoleID)
	assert.Equal(t, viewer.ID, *response.User.RoleID)

	claims, err := fixture.tokens.VerifyAccessToken(response.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, response.User.ID, claims.Subject)
	assert.Equal(t, viewer.ID, *claims.RoleID)

	refresh, err := fixture.tokens.VerifyRefreshToken(response.RefreshToken)
	require.NoError(t, err)
	assert.Nil(t, refresh.RoleID)

	events := fixture.sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionUserRegistered, events[0].Action)
	assert.Equal(t, response.User.ID, *events[0].UserID)
	assert.Equal(t, sec.StrengthVeryStrong, events[0].Details["password_strength"])
}

/*
TestRegister_Rejections covers form validation and uniqueness.
*/
func TestRegister_Rejections(t *testing.T) {
	fixture := newFixture(t)
	fixture.register(t, "alice")

	tests := []struct {
		name    string
		input   auth.RegisterInput
		kind    apperr.Kind
		message string
	}{
		{
			name:    "every_field_invalid",
			input:   auth.RegisterInput{Username: "ab", Email: "not-an-email", Password: "weak"},
			kind:    apperr.KindValidation,
			message: "Registration validation failed: Username must be at least 3 characters long; Invalid email format; Password is too weak",
		},
		{
			name:    "reserved_username",
			input:   auth.RegisterInput{Username: "admin", Email: "root@example.com", Password: strongPassword},
			kind:    apperr.KindValidation,
			message: "Registration validation failed: Username is too common, please choose a different one",
		},
		{
			name:    "username_taken",
			input:   auth.RegisterInput{Username: "alice", Email: "other@example.com", Password: strongPassword},
			kind:    apperr.KindConflict,
			message: "Username already registered",
		},
		{
			name:    "email_taken",
			input:   auth.RegisterInput{Username: "alicia", Email: "alice@example.com", Password: strongPassword},
			kind:    apperr.KindConflict,
			message: "Email already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixture.service.Register(context.Background(), tt.input)
			requireKind(t, err, tt.kind, tt.message)
		})
	}
}

/*
TestEnsureRole creates catalog roles once and refuses unknown names.
*/
func TestEnsureRole(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()

	first, err := fixture.service.EnsureRole(ctx, rbac.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleDescription(rbac.RoleManager), first.Description)

	second, err := fixture.service.EnsureRole(ctx, rbac.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = fixture.service.EnsureRole(ctx, "ghost")
	requireKind(t, err, apperr.KindNotFound, "Role 'ghost' not found")
}

// # Login

/*
TestLogin covers success and every credential failure.
*/
func TestLogin(t *testing.T) {
	fixture := newFixture(t)
	registered := fixture.register(t, "alice")

	inactive := fixture.register(t, "bob").User
	inactive.IsActive = false
	require.NoError(t, fixture.users.Update(context.Background(), inactive))

	tests := []struct {
		name     string
		username string
		password string
		message  string
		action   audit.Action
	}{
		{"success", "alice", strongPassword, "", audit.ActionUserLogin},
		{"wrong_password", "alice", "Wrong#Password1", "Invalid username or password", audit.ActionLoginFailed},
		{"unknown_user", "mallory", strongPassword, "Invalid username or password", audit.ActionLoginFailed},
		{"inactive", "bob", strongPassword, "User account is inactive", audit.ActionLoginFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(fixture.sink.Events())
			response, err := fixture.service.Login(context.Background(), auth.LoginInput{Username: tt.username, Password: tt.password})

			events := fixture.sink.Events()
			require.Len(t, events, before+1)
			assert.Equal(t, tt.action, events[before].Action)

			if tt.message == "" {
				require.NoError(t, err)
				assert.Equal(t, registered.User.ID, response.User.ID)
				assert.NotEmpty(t, response.RefreshToken)
				return
			}
			requireKind(t, err, apperr.KindAuthentication, tt.message)
		})
	}
}

/*
TestLogin_CancelledContext reports the cancellation instead of auditing a bad password.
*/
func TestLogin_CancelledContext(t *testing.T) {
	fixture := newFixture(t)
	fixture.register(t, "alice")

	pool := sec.NewWorkerPool(1)
	defer pool.Close()
	service := auth.NewService(auth.Options{
		Users:     fixture.users,
		Roles:     fixture.roles,
		Passwords: sec.NewPasswordService(sec.PasswordOptions{BcryptCost: 4, Pool: pool}),
		Tokens:    fixture.tokens,
		Audit:     audit.NewLogger(audit.Options{Sink: fixture.sink}),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	before := len(fixture.sink.Events())

	response, err := service.Login(ctx, auth.LoginInput{Username: "alice", Password: strongPassword})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, response)
	assert.Nil(t, apperr.As(err))
	assert.Len(t, fixture.sink.Events(), before)
	assert.NotContains(t, fixture.sink.Actions(), audit.ActionLoginFailed)
}

// # Refresh & Logout

/*
TestRefresh re-reads the role and refuses misuse of tokens.
*/
func TestRefresh(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()
	session := fixture.register(t, "alice")

	t.Run("role_reloaded", func(t *testing.T) {
		manager, err := fixture.service.EnsureRole(ctx, rbac.RoleManager)
		require.NoError(t, err)

		user := *session.User
		user.RoleID = pointer.To(manager.ID)
		require.NoError(t, fixture.users.Update(ctx, &user))

		response, err := fixture.service.Refresh(ctx, session.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "bearer", response.TokenType)

		claims, err := fixture.tokens.VerifyAccessToken(response.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, manager.ID, *claims.RoleID)
	})

	t.Run("access_token_rejected", func(t *testing.T) {
		_, err := fixture.service.Refresh(ctx, session.AccessToken)
		requireKind(t, err, apperr.KindAuthentication, "Invalid token type")
	})

	t.Run("garbage_rejected", func(t *testing.T) {
		_, err := fixture.service.Refresh(ctx, "not.a.token")
		requireKind(t, err, apperr.KindAuthentication, "Invalid refresh token")
	})

	t.Run("revoked_after_logout", func(t *testing.T) {
		other := fixture.register(t, "carol")
		identity := &sec.Identity{SubjectID: other.User.ID, Username: "carol"}

		require.NoError(t, fixture.service.Logout(ctx, identity, other.RefreshToken))

		_, err := fixture.service.Refresh(ctx, other.RefreshToken)
		requireKind(t, err, apperr.KindAuthentication, "Invalid refresh token")
	})

	t.Run("inactive_user", func(t *testing.T) {
		user, err := fixture.users.FindByID(ctx, session.User.ID)
		require.NoError(t, err)
		user.IsActive = false
		require.NoError(t, fixture.users.Update(ctx, user))

		_, err = fixture.service.Refresh(ctx, session.RefreshToken)
		requireKind(t, err, apperr.KindAuthentication, "User not found or inactive")
	})
}

/*
TestLogout_ForeignToken leaves another user's refresh token usable.
*/
func TestLogout_ForeignToken(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()
	alice := fixture.register(t, "alice")
	bob := fixture.register(t, "bob")

	require.NoError(t, fixture.service.Logout(ctx, &sec.Identity{SubjectID: bob.User.ID}, alice.RefreshToken))

	_, err := fixture.service.Refresh(ctx, alice.RefreshToken)
	require.NoError(t, err)

	events := fixture.sink.Events()
	last := events[len(events)-2]
	assert.Equal(t, audit.ActionUserLogout, last.Action)
	assert.Equal(t, false, last.Details["refresh_revoked"])
}

// # Account

/*
TestChangePassword checks the current password and the new password's strength.
*/
func TestChangePassword(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()
	userID := fixture.register(t, "alice").User.ID

	err := fixture.service.ChangePassword(ctx, userID, "Wrong#Password1", newPassword)
	requireKind(t, err, apperr.KindValidation, "Current password is incorrect")

	err = fixture.service.ChangePassword(ctx, userID, strongPassword, "abcdefgh")
	requireKind(t, err, apperr.KindValidation,
		"New password does not meet requirements: Missing uppercase letters; Missing numbers; Missing special characters; Contains sequential characters")

	require.NoError(t, fixture.service.ChangePassword(ctx, userID, strongPassword, newPassword))

	_, err = fixture.service.Login(ctx, auth.LoginInput{Username: "alice", Password: newPassword})
	require.NoError(t, err)
	_, err = fixture.service.Login(ctx, auth.LoginInput{Username: "alice", Password: strongPassword})
	assert.Error(t, err)

	assert.Contains(t, fixture.sink.Actions(), audit.ActionPasswordChanged)
}

/*
TestUpdateProfile validates and de-duplicates email changes.
*/
func TestUpdateProfile(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()
	alice := fixture.register(t, "alice").User
	fixture.register(t, "bob")

	_, err := fixture.service.UpdateProfile(ctx, alice.ID, auth.ProfileInput{Email: pointer.To("bad@@example")})
	requireKind(t, err, apperr.KindValidation, "Invalid email format")

	_, err = fixture.service.UpdateProfile(ctx, alice.ID, auth.ProfileInput{Email: pointer.To("bob@example.com")})
	requireKind(t, err, apperr.KindConflict, "Email already registered by another user")

	updated, err := fixture.service.UpdateProfile(ctx, alice.ID, auth.ProfileInput{Email: pointer.To(" alice@stockroom.example ")})
	require.NoError(t, err)
	assert.Equal(t, "alice@stockroom.example", updated.Email)
	assert.True(t, updated.IsActive)

	events := fixture.sink.Events()
	last := events[len(events)-1]
	assert.Equal(t, audit.ActionProfileUpdated, last.Action)
	assert.Equal(t, true, last.Details["email_updated"])
	assert.Equal(t, false, last.Details["active_status_updated"])

	_, err = fixture.service.UpdateProfile(ctx, alice.ID, auth.ProfileInput{IsActive: pointer.To(false)})
	require.NoError(t, err)

	_, err = fixture.service.Me(ctx, alice.ID)
	requireKind(t, err, apperr.KindAuthentication, "User account is inactive")
}

/*
TestMemoryRevocationStore expires entries with their token.
*/
func TestMemoryRevocationStore(t *testing.T) {
	store := auth.NewMemoryRevocationStore()
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Hour))
	require.NoError(t, store.Revoke(ctx, "jti-2", 0))

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
