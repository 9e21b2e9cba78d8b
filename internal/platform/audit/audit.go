// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package audit emits append-only records of security-relevant actions.

Architecture:

  - Event: one immutable record (ULID id, UTC timestamp, action, user, details).
  - Sink: where events go. SlogSink writes them to the structured log stream,
    StreamSink appends them to a Redis stream, MemorySink keeps them for
    inspection in tests and MultiSink fans out.
  - Logger: stamps events and hands them to its sink. It is injected into the
    services that perform audited actions; there is no package-level instance.

Emission never fails the calling operation.
*/
package audit

import (
	"context"
	"maps"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taibuivan/stockroom/internal/platform/ctxutil"
	"github.com/taibuivan/stockroom/internal/platform/metrics"
	"github.com/taibuivan/stockroom/pkg/pointer"
)

// # Actions

// Action names an audited operation.
type Action string

const (
	ActionUserLogin       Action = "user_login"
	ActionLoginFailed     Action = "login_failed"
	ActionUserRegistered  Action = "user_registered"
	ActionTokenRefreshed  Action = "token_refreshed"
	ActionPasswordChanged Action = "password_changed"
	ActionProfileUpdated  Action = "profile_updated"
	ActionRoleAssigned    Action = "role_assigned"
	ActionRoleRemoved     Action = "role_removed"
	ActionUserLogout      Action = "user_logout"
)

// # Event

// Event is one audit record.
type Event struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	Action        Action         `json:"action"`
	UserID        *string        `json:"user_id"`
	Details       map[string]any `json:"details"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

// Sink receives stamped events.
type Sink interface {
	Write(ctx context.Context, event Event)
}

// # Logger

// Options configures a [Logger].
type Options struct {
	// Sink defaults to a SlogSink over the request logger.
	Sink Sink
	// Metrics, when set, counts events by action.
	Metrics *metrics.Metrics
	// Clock overrides time.Now.
	Clock func() time.Time
}

// Logger stamps and emits audit events. It is safe for concurrent use.
type Logger struct {
	sink    Sink
	metrics *metrics.Metrics
	now     func() time.Time

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

// NewLogger creates a Logger.
func NewLogger(options Options) *Logger {
	logger := &Logger{
		sink:    options.Sink,
		metrics: options.Metrics,
		now:     options.Clock,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	if logger.sink == nil {
		logger.sink = SlogSink{}
	}
	if logger.now == nil {
		logger.now = time.Now
	}
	return logger
}

// Record emits an event for action and returns it.
// A nil details map is recorded as an empty object.
func (logger *Logger) Record(ctx context.Context, action Action, userID *string, details map[string]any) Event {
	timestamp := logger.now().UTC()

	event := Event{
		ID:            logger.newID(timestamp),
		Timestamp:     timestamp,
		Action:        action,
		UserID:        pointer.Clone(userID),
		Details:       make(map[string]any, len(details)),
		CorrelationID: ctxutil.GetCorrelationID(ctx),
	}
	maps.Copy(event.Details, details)

	logger.sink.Write(ctx, event)
	logger.metrics.ObserveAuditEvent(string(action))

	return event
}

func (logger *Logger) newID(timestamp time.Time) string {
	logger.entropyMu.Lock()
	defer logger.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(timestamp), logger.entropy).String()
}
