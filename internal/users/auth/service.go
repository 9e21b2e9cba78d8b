// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/audit"
	"github.com/taibuivan/stockroom/internal/platform/constants"
	"github.com/taibuivan/stockroom/internal/platform/metrics"
	"github.com/taibuivan/stockroom/internal/platform/rbac"
	"github.com/taibuivan/stockroom/internal/platform/sanitize"
	"github.com/taibuivan/stockroom/internal/platform/sec"
	"github.com/taibuivan/stockroom/pkg/pointer"
	"github.com/taibuivan/stockroom/pkg/uuid"
)

// # Contracts & Types

// Options wires a [Service] to its collaborators.
type Options struct {
	Users       UserRepository
	Roles       RoleRepository
	Revocations RevocationStore
	Passwords   *sec.PasswordService
	Tokens      *sec.TokenService
	Audit       *audit.Logger
	Metrics     *metrics.Metrics

	// DefaultRole is granted to self-registered users. Defaults to viewer.
	DefaultRole string

	// Clock overrides time.Now.
	Clock func() time.Time
}

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	users       UserRepository
	roles       RoleRepository
	revocations RevocationStore
	passwords   *sec.PasswordService
	tokens      *sec.TokenService
	audit       *audit.Logger
	metrics     *metrics.Metrics
	defaultRole string
	now         func() time.Time
}

// NewService constructs a new [Service].
func NewService(options Options) *Service {
	service := &Service{
		users:       options.Users,
		roles:       options.Roles,
		revocations: options.Revocations,
		passwords:   options.Passwords,
		tokens:      options.Tokens,
		audit:       options.Audit,
		metrics:     options.Metrics,
		defaultRole: options.DefaultRole,
		now:         options.Clock,
	}

	if service.revocations == nil {
		service.revocations = NewMemoryRevocationStore()
	}
	if service.audit == nil {
		service.audit = audit.NewLogger(audit.Options{Metrics: options.Metrics})
	}
	if service.defaultRole == "" {
		service.defaultRole = rbac.RoleViewer
	}
	if service.now == nil {
		service.now = time.Now
	}
	return service
}

// TokenResponse is returned by registration and login.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user"`
}

// RefreshResponse is returned by a token refresh.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Client-safe failure messages.
const (
	msgInvalidCredentials  = "Invalid username or password"
	msgInactive            = "User account is inactive"
	msgInvalidTokenType    = "Invalid token type"
	msgInvalidRefresh      = "Invalid refresh token"
	msgUserUnavailable     = "User not found or inactive"
	msgIncorrectPassword   = "Current password is incorrect"
	msgUsernameTaken       = "Username already registered"
	msgEmailTaken          = "Email already registered"
	msgEmailTakenByAnother = "Email already registered by another user"
	msgInvalidEmail        = "Invalid email format"
)

// # Registration Flow

// RegisterInput holds the data required to enroll a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

/*
Register validates, hashes and persists a new account, then signs it in.

The account receives the default role; a missing role row is created on the
way. Username and email are sanitized before any check runs; the password is
never altered.
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*TokenResponse, error) {
	username := sanitize.Input(input.Username, 0)
	email := sanitize.Input(input.Email, 0)

	// 1. Validate the form as a whole
	check := sanitize.ValidateRegistration(username, email, input.Password)
	if !check.IsValid {
		return nil, apperr.Validation("Registration validation failed: "+strings.Join(check.Errors, "; ")).
			WithDetail("errors", check.Errors)
	}

	// 2. Uniqueness
	if err := service.ensureAbsent(ctx, service.users.FindByUsername, username, msgUsernameTaken); err != nil {
		return nil, err
	}
	if err := service.ensureAbsent(ctx, service.users.FindByEmail, email, msgEmailTaken); err != nil {
		return nil, err
	}

	// 3. Default role
	role, err := service.EnsureRole(ctx, service.defaultRole)
	if err != nil {
		return nil, fmt.Errorf("auth_service_default_role_failed: %w", err)
	}

	// 4. Persist
	hash, err := service.hash(ctx, input.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		RoleID:       pointer.To(role.ID),
	}
	if err := service.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// 5. Sign in
	response, err := service.issue(user)
	if err != nil {
		return nil, err
	}

	service.audit.Record(ctx, audit.ActionUserRegistered, &user.ID, map[string]any{
		"username":          user.Username,
		"email":             user.Email,
		"role":              role.Name,
		"password_strength": check.PasswordStrength.Strength,
	})

	return response, nil
}

func (service *Service) ensureAbsent(ctx context.Context, find func(context.Context, string) (*User, error), value, message string) error {
	_, err := find(ctx, value)
	switch {
	case err == nil:
		return apperr.Conflict(message)
	case apperr.IsKind(err, apperr.KindNotFound):
		return nil
	default:
		return fmt.Errorf("auth_service_lookup_failed: %w", err)
	}
}

/*
EnsureRole returns the persisted row of a catalog role, creating it if needed.

Names outside the static catalog are NOT_FOUND. A concurrent creation that
wins the unique constraint is resolved by reading the row back.
*/
func (service *Service) EnsureRole(ctx context.Context, name string) (*Role, error) {
	if !rbac.IsValidRole(name) {
		return nil, apperr.NotFound(fmt.Sprintf("Role '%s'", name))
	}

	role, err := service.roles.FindByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, err
	}

	role = &Role{ID: uuid.New(), Name: name, Description: rbac.RoleDescription(name)}
	err = service.roles.Create(ctx, role)
	if apperr.IsKind(err, apperr.KindConflict) {
		return service.roles.FindByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username string
	Password string
}

/*
Login verifies credentials and returns a token pair.

Unknown usernames and wrong passwords share one message so the response does
not reveal which accounts exist. Every failure is audited.
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*TokenResponse, error) {
	username := sanitize.Input(input.Username, 0)

	user, err := service.users.FindByUsername(ctx, username)
	if apperr.IsKind(err, apperr.KindNotFound) {
		service.loginFailed(ctx, nil, username, "unknown_user")
		return nil, apperr.Authentication(msgInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("auth_service_login_failed: %w", err)
	}

	if !service.passwords.Verify(ctx, input.Password, user.PasswordHash) {
		// An aborted request never reached the comparison.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("auth_service_login_failed: %w", err)
		}
		service.loginFailed(ctx, &user.ID, username, "bad_password")
		return nil, apperr.Authentication(msgInvalidCredentials)
	}

	if !user.IsActive {
		service.loginFailed(ctx, &user.ID, username, "inactive")
		return nil, apperr.Authentication(msgInactive)
	}

	response, err := service.issue(user)
	if err != nil {
		return nil, err
	}

	service.audit.Record(ctx, audit.ActionUserLogin, &user.ID, map[string]any{
		"username":         user.Username,
		"login_successful": true,
	})
	return response, nil
}

func (service *Service) loginFailed(ctx context.Context, userID *string, username, reason string) {
	service.audit.Record(ctx, audit.ActionLoginFailed, userID, map[string]any{
		"username": username,
		"reason":   reason,
	})
}

/*
Refresh exchanges a refresh token for a new access token.

The role is read again from the user record, so a role change takes effect
on the next refresh. Revoked tokens and inactive users are refused.
*/
func (service *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	claims, err := service.tokens.VerifyRefreshToken(refreshToken)
	if errors.Is(err, sec.ErrTokenType) {
		return nil, apperr.Authentication(msgInvalidTokenType)
	}
	if err != nil {
		return nil, apperr.Authentication(msgInvalidRefresh)
	}

	revoked, err := service.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperr.ExternalService("Revocation", "check failed", err)
	}
	if revoked {
		return nil, apperr.Authentication(msgInvalidRefresh)
	}

	user, err := service.users.FindByID(ctx, claims.Subject)
	if apperr.IsKind(err, apperr.KindNotFound) || (err == nil && !user.IsActive) {
		return nil, apperr.Authentication(msgUserUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_failed: %w", err)
	}

	accessToken, err := service.tokens.CreateAccessToken(user.Subject(), 0)
	if err != nil {
		return nil, fmt.Errorf("auth_service_sign_failed: %w", err)
	}

	service.audit.Record(ctx, audit.ActionTokenRefreshed, &user.ID, map[string]any{"username": user.Username})

	return &RefreshResponse{
		AccessToken: accessToken,
		TokenType:   constants.TokenTypeBearer,
		ExpiresIn:   service.expiresIn(),
	}, nil
}

/*
Logout revokes the caller's refresh token when one is supplied.

A refresh token that does not verify, or that belongs to someone else, is
ignored: logging out always succeeds for the caller.
*/
func (service *Service) Logout(ctx context.Context, identity *sec.Identity, refreshToken string) error {
	revoked := false

	if refreshToken != "" {
		claims, err := service.tokens.VerifyRefreshToken(refreshToken)
		if err == nil && claims.Subject == identity.SubjectID {
			ttl := claims.ExpiresAt.Sub(service.now())
			if err := service.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
				return apperr.ExternalService("Revocation", "revoke failed", err)
			}
			revoked = true
		}
	}

	service.audit.Record(ctx, audit.ActionUserLogout, &identity.SubjectID, map[string]any{
		"username":        identity.Username,
		"refresh_revoked": revoked,
	})
	return nil
}

// # Account

// Me returns the active account behind an identity.
func (service *Service) Me(ctx context.Context, userID string) (*User, error) {
	user, err := service.users.FindByID(ctx, userID)
	if apperr.IsKind(err, apperr.KindNotFound) {
		return nil, apperr.Authentication(msgUserUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("auth_service_me_failed: %w", err)
	}
	if !user.IsActive {
		return nil, apperr.Authentication(msgInactive)
	}
	return user, nil
}

// ResolveSubject reloads the active account behind a verified token. The
// returned identity carries the stored role, not the one signed into the token.
func (service *Service) ResolveSubject(ctx context.Context, subjectID string) (*sec.Identity, error) {
	user, err := service.Me(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return &sec.Identity{SubjectID: user.ID, Username: user.Username, RoleID: user.RoleID}, nil
}

// ChangePassword replaces the password after re-checking the current one.
func (service *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := service.Me(ctx, userID)
	if err != nil {
		return err
	}

	if !service.passwords.Verify(ctx, currentPassword, user.PasswordHash) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("auth_service_change_password_failed: %w", err)
		}
		return apperr.Validation(msgIncorrectPassword,
			apperr.FieldError{Field: FieldCurrentPassword, Message: msgIncorrectPassword})
	}

	report := sec.AnalyzeStrength(newPassword)
	if !report.IsAcceptable {
		message := "New password does not meet requirements: " + strings.Join(report.Feedback, "; ")
		return apperr.Validation(message, apperr.FieldError{Field: FieldNewPassword, Message: message})
	}

	hash, err := service.hash(ctx, newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	if err := service.users.Update(ctx, user); err != nil {
		return fmt.Errorf("auth_service_change_password_failed: %w", err)
	}

	service.audit.Record(ctx, audit.ActionPasswordChanged, &user.ID, map[string]any{
		"username":          user.Username,
		"password_strength": report.Strength,
	})
	return nil
}

// ProfileInput carries optional profile changes. Nil fields are left untouched.
type ProfileInput struct {
	Email    *string
	IsActive *bool
}

// UpdateProfile applies email and activity changes to the caller's account.
func (service *Service) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*User, error) {
	user, err := service.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := sanitize.Input(*input.Email, 0)
		if !sanitize.ValidateEmail(email) {
			return nil, apperr.Validation(msgInvalidEmail, apperr.FieldError{Field: FieldEmail, Message: msgInvalidEmail})
		}

		owner, err := service.users.FindByEmail(ctx, email)
		switch {
		case err == nil && owner.ID != user.ID:
			return nil, apperr.Conflict(msgEmailTakenByAnother)
		case err != nil && !apperr.IsKind(err, apperr.KindNotFound):
			return nil, fmt.Errorf("auth_service_lookup_failed: %w", err)
		}
		user.Email = email
	}

	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := service.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("auth_service_update_profile_failed: %w", err)
	}

	service.audit.Record(ctx, audit.ActionProfileUpdated, &user.ID, map[string]any{
		"username":              user.Username,
		"email_updated":         input.Email != nil,
		"active_status_updated": input.IsActive != nil,
	})
	return user, nil
}

// # Helpers

func (service *Service) hash(ctx context.Context, password string) (string, error) {
	hash, err := service.passwords.Hash(ctx, password)
	if err != nil {
		if apperr.As(err) != nil {
			return "", err
		}
		return "", fmt.Errorf("auth_service_hash_failed: %w", err)
	}
	service.metrics.ObservePasswordHash(string(service.passwords.Algorithm()))
	return hash, nil
}

func (service *Service) issue(user *User) (*TokenResponse, error) {
	subject := user.Subject()

	accessToken, err := service.tokens.CreateAccessToken(subject, 0)
	if err != nil {
		return nil, fmt.Errorf("auth_service_sign_failed: %w", err)
	}
	refreshToken, err := service.tokens.CreateRefreshToken(subject)
	if err != nil {
		return nil, fmt.Errorf("auth_service_sign_failed: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    constants.TokenTypeBearer,
		ExpiresIn:    service.expiresIn(),
		User:         user,
	}, nil
}

func (service *Service) expiresIn() int {
	return int(service.tokens.AccessTTL().Seconds())
}
