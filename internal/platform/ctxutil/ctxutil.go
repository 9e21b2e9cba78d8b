// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/stockroom/internal/platform/ctxkey"
	"github.com/taibuivan/stockroom/internal/platform/sec"
)

// # Request Tracing

// WithCorrelationID returns a new context with the provided correlation ID attached.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyCorrelationID, id)
}

// GetCorrelationID retrieves the correlation ID from the context.
// Returns an empty string if not found.
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyCorrelationID).(string)
	return id
}

// RequestState carries values discovered by inner stages back to the outer ones.
//
// It is created by the Correlation stage and only touched by the goroutine
// serving the request.
type RequestState struct {
	SubjectID string
}

// WithRequestState attaches a fresh [RequestState] and returns both.
func WithRequestState(ctx context.Context) (context.Context, *RequestState) {
	state := &RequestState{}
	return context.WithValue(ctx, ctxkey.KeyRequestState, state), state
}

// GetRequestState returns the request state, or nil outside the pipeline.
func GetRequestState(ctx context.Context) *RequestState {
	state, _ := ctx.Value(ctxkey.KeyRequestState).(*RequestState)
	return state
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// # Error Presentation

// WithErrorExposure records whether server-side error messages may reach the client.
func WithErrorExposure(ctx context.Context, expose bool) context.Context {
	return context.WithValue(ctx, ctxkey.KeyExposeErrors, expose)
}

// ExposeErrors reports the masking policy. Outside the pipeline messages are masked.
func ExposeErrors(ctx context.Context) bool {
	expose, _ := ctx.Value(ctxkey.KeyExposeErrors).(bool)
	return expose
}

// # Identity & Access

// WithIdentity returns a new context with the authenticated identity attached.
func WithIdentity(ctx context.Context, identity *sec.Identity) context.Context {
	return context.WithValue(ctx, ctxkey.KeyIdentity, identity)
}

// GetIdentity retrieves the [*sec.Identity] from the [context.Context].
func GetIdentity(ctx context.Context) *sec.Identity {
	identity, ok := ctx.Value(ctxkey.KeyIdentity).(*sec.Identity)
	if !ok {
		return nil
	}
	return identity
}
