// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/stockroom/internal/platform/audit"
	"github.com/taibuivan/stockroom/internal/platform/ctxutil"
	"github.com/taibuivan/stockroom/internal/platform/metrics"
)

/*
TestRecord_StampsEvent fills id, UTC timestamp and correlation id.
*/
func TestRecord_StampsEvent(t *testing.T) {
	sink := audit.NewMemorySink()
	local := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("ICT", 7*3600))
	logger := audit.NewLogger(audit.Options{Sink: sink, Clock: func() time.Time { return local }})

	userID := "user-1"
	ctx := ctxutil.WithCorrelationID(context.Background(), "corr-42")
	event := logger.Record(ctx, audit.ActionUserLogin, &userID, map[string]any{"username": "alice"})

	_, err := ulid.ParseStrict(event.ID)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, event.Timestamp.Location())
	assert.True(t, event.Timestamp.Equal(local))
	assert.Equal(t, audit.ActionUserLogin, event.Action)
	assert.Equal(t, "user-1", *event.UserID)
	assert.Equal(t, "corr-42", event.CorrelationID)
	assert.Equal(t, "alice", event.Details["username"])

	require.Len(t, sink.Events(), 1)
	assert.Equal(t, event, sink.Events()[0])
}

/*
TestRecord_Isolation keeps later caller mutations out of emitted events.
*/
func TestRecord_Isolation(t *testing.T) {
	sink := audit.NewMemorySink()
	logger := audit.NewLogger(audit.Options{Sink: sink})

	userID := "user-1"
	details := map[string]any{"role": "viewer"}
	logger.Record(context.Background(), audit.ActionRoleAssigned, &userID, details)

	userID = "user-2"
	details["role"] = "admin"

	event := sink.Events()[0]
	assert.Equal(t, "user-1", *event.UserID)
	assert.Equal(t, "viewer", event.Details["role"])

	anonymous := logger.Record(context.Background(), audit.ActionLoginFailed, nil, nil)
	assert.Nil(t, anonymous.UserID)
	assert.NotNil(t, anonymous.Details)
}

/*
TestRecord_UniqueIDs never repeats an id under concurrency.
*/
func TestRecord_UniqueIDs(t *testing.T) {
	sink := audit.NewMemorySink()
	logger := audit.NewLogger(audit.Options{Sink: sink})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Record(context.Background(), audit.ActionTokenRefreshed, nil, nil)
		}()
	}
	wg.Wait()

	seen := make(map[string]struct{})
	for _, event := range sink.Events() {
		seen[event.ID] = struct{}{}
	}
	assert.Len(t, seen, 50)
}

/*
TestSlogSink_Format writes one audit_event record per event.
*/
func TestSlogSink_Format(t *testing.T) {
	var buffer bytes.Buffer
	sink := audit.SlogSink{Logger: slog.New(slog.NewJSONHandler(&buffer, nil))}
	memory := audit.NewMemorySink()
	registry := metrics.New()

	logger := audit.NewLogger(audit.Options{Sink: audit.MultiSink{sink, memory}, Metrics: registry})
	userID := "user-9"
	logger.Record(context.Background(), audit.ActionPasswordChanged, &userID, nil)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &record))
	assert.Equal(t, "audit_event", record["msg"])
	assert.Equal(t, "password_changed", record["action"])
	assert.Equal(t, "user-9", record["user_id"])

	assert.Equal(t, []audit.Action{audit.ActionPasswordChanged}, memory.Actions())
	assert.Equal(t, float64(1), testutil.ToFloat64(registry.AuditEvents.WithLabelValues("password_changed")))
}

type streamRecorder struct {
	mu   sync.Mutex
	args []*redis.XAddArgs
	err  error
}

func (recorder *streamRecorder) XAdd(_ context.Context, args *redis.XAddArgs) *redis.StringCmd {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.args = append(recorder.args, args)
	return redis.NewStringResult("1-0", recorder.err)
}

/*
TestStreamSink appends the JSON event to a trimmed stream and survives a failing client.
*/
func TestStreamSink(t *testing.T) {
	t.Run("append", func(t *testing.T) {
		client := &streamRecorder{}
		memory := audit.NewMemorySink()
		logger := audit.NewLogger(audit.Options{Sink: audit.MultiSink{audit.NewStreamSink(client, "audit:events", 1000), memory}})

		userID := "user-3"
		event := logger.Record(context.Background(), audit.ActionRoleAssigned, &userID, map[string]any{"role": "clerk"})

		require.Len(t, client.args, 1)
		args := client.args[0]
		assert.Equal(t, "audit:events", args.Stream)
		assert.Equal(t, int64(1000), args.MaxLen)
		assert.True(t, args.Approx)

		values, ok := args.Values.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "role_assigned", values["action"])

		var stored audit.Event
		require.NoError(t, json.Unmarshal(values["event"].([]byte), &stored))
		assert.Equal(t, event.ID, stored.ID)
		assert.Equal(t, "clerk", stored.Details["role"])

		assert.Equal(t, []audit.Action{audit.ActionRoleAssigned}, memory.Actions())
	})

	t.Run("client_error", func(t *testing.T) {
		var buffer bytes.Buffer
		ctx := ctxutil.WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buffer, nil)))
		client := &streamRecorder{err: errors.New("connection refused")}
		memory := audit.NewMemorySink()
		logger := audit.NewLogger(audit.Options{Sink: audit.MultiSink{audit.NewStreamSink(client, "audit:events", 0), memory}})

		logger.Record(ctx, audit.ActionUserLogout, nil, nil)

		require.Len(t, client.args, 1)
		assert.Zero(t, client.args[0].MaxLen)
		assert.Contains(t, buffer.String(), "audit_stream_write_failed")
		assert.Equal(t, []audit.Action{audit.ActionUserLogout}, memory.Actions())
	})
}
