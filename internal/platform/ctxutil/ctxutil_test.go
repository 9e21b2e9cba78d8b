// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/stockroom/internal/platform/ctxutil"
	"github.com/taibuivan/stockroom/internal/platform/sec"
)

/*
TestContext_CorrelationID verifies that correlation IDs can be injected and retrieved.
*/
func TestContext_CorrelationID(t *testing.T) {
	ctx := context.Background()

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetCorrelationID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithCorrelationID(ctx, "corr-123")
	assert.Equal(t, "corr-123", ctxutil.GetCorrelationID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Identity verifies that identities can be stored in context.
*/
func TestContext_Identity(t *testing.T) {
	ctx := context.Background()
	roleID := "role-1"

	assert.Nil(t, ctxutil.GetIdentity(ctx))

	ctx = ctxutil.WithIdentity(ctx, &sec.Identity{SubjectID: "user-123", Username: "clerk_1", RoleID: &roleID})
	retrieved := ctxutil.GetIdentity(ctx)

	require.NotNil(t, retrieved)
	assert.Equal(t, "user-123", retrieved.SubjectID)
	assert.Equal(t, "role-1", *retrieved.RoleID)
}

/*
TestContext_RequestState verifies that inner writes are visible through the shared pointer.
*/
func TestContext_RequestState(t *testing.T) {
	assert.Nil(t, ctxutil.GetRequestState(context.Background()))

	ctx, state := ctxutil.WithRequestState(context.Background())
	ctxutil.GetRequestState(ctx).SubjectID = "user-9"

	assert.Equal(t, "user-9", state.SubjectID)
}

/*
TestContext_ErrorExposure verifies that masking is the default.
*/
func TestContext_ErrorExposure(t *testing.T) {
	assert.False(t, ctxutil.ExposeErrors(context.Background()))
	assert.True(t, ctxutil.ExposeErrors(ctxutil.WithErrorExposure(context.Background(), true)))
}
