// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/stockroom/internal/platform/ctxutil"
)

// SlogSink writes events to a structured logger as "audit_event" records.
// A nil Logger uses the request logger from ctx.
type SlogSink struct {
	Logger *slog.Logger
}

// Write implements [Sink].
func (sink SlogSink) Write(ctx context.Context, event Event) {
	logger := sink.Logger
	if logger == nil {
		logger = ctxutil.GetLogger(ctx)
	}

	userID := ""
	if event.UserID != nil {
		userID = *event.UserID
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "audit_event",
		slog.String("event_id", event.ID),
		slog.String("action", string(event.Action)),
		slog.String("user_id", userID),
		slog.String("timestamp", event.Timestamp.Format(time.RFC3339Nano)),
		slog.String("correlation_id", event.CorrelationID),
		slog.Any("details", event.Details),
	)
}

// MemorySink keeps events in memory in emission order.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write implements [Sink].
func (sink *MemorySink) Write(_ context.Context, event Event) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.events = append(sink.events, event)
}

// Events returns a snapshot of the recorded events.
func (sink *MemorySink) Events() []Event {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return append([]Event(nil), sink.events...)
}

// Actions returns the recorded actions in order.
func (sink *MemorySink) Actions() []Action {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	actions := make([]Action, len(sink.events))
	for i, event := range sink.events {
		actions[i] = event.Action
	}
	return actions
}

// MultiSink writes each event to every sink in order.
type MultiSink []Sink

// Write implements [Sink].
func (sinks MultiSink) Write(ctx context.Context, event Event) {
	for _, sink := range sinks {
		sink.Write(ctx, event)
	}
}

// StreamAdder is the part of the Redis client used by [StreamSink].
type StreamAdder interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// StreamSink appends events to a Redis stream so every API instance feeds one
// shared trail. Each entry carries the event as JSON under the "event" field.
//
// A failed append is logged and dropped.
type StreamSink struct {
	client StreamAdder
	stream string
	maxLen int64
}

// NewStreamSink creates a StreamSink. A maxLen of zero keeps the stream untrimmed.
func NewStreamSink(client StreamAdder, stream string, maxLen int64) *StreamSink {
	return &StreamSink{client: client, stream: stream, maxLen: maxLen}
}

// Write implements [Sink].
func (sink *StreamSink) Write(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "audit_stream_encode_failed",
			slog.String("event_id", event.ID), slog.Any("error", err))
		return
	}

	args := &redis.XAddArgs{
		Stream: sink.stream,
		Values: map[string]any{"action": string(event.Action), "event": payload},
	}
	if sink.maxLen > 0 {
		args.MaxLen = sink.maxLen
		args.Approx = true
	}

	if err := sink.client.XAdd(ctx, args).Err(); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "audit_stream_write_failed",
			slog.String("event_id", event.ID),
			slog.String("stream", sink.stream),
			slog.Any("error", err),
		)
	}
}
