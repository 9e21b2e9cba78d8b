// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware provides the cross-cutting HTTP processing chain.

It acts as a series of decorators around the standard http.Handler, injecting
traceability, safety and security into every request lifecycle.

Standard Stack (outermost first, see [Pipeline]):

  - Correlation: X-Correlation-ID accepted or generated, echoed on the response.
  - Logging: request_started / request_completed records on a per-request logger.
  - Instrument: Prometheus request metrics.
  - ErrorNormalization: panic recovery and the error masking policy.
  - SecurityHeaders: hardening headers injected at first write.
  - CORS and BodyLimit: browser access policy and request size bound.
  - RateLimit: per client IP admission.
  - Authentication: bearer token verification outside the public allowlist.

Authorization is per route via [RequireGuard].
*/
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/taibuivan/stockroom/internal/platform/constants"
	"github.com/taibuivan/stockroom/internal/platform/ctxutil"
	"github.com/taibuivan/stockroom/pkg/uuid"
)

// # Response Tracking

// responseWriter records the first status written and runs a hook just before
// headers leave the server.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	beforeWrite func(http.Header)
}

func wrapWriter(writer http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: writer}
}

func (writer *responseWriter) WriteHeader(code int) {
	if writer.wroteHeader {
		return
	}
	writer.wroteHeader = true
	writer.status = code
	if writer.beforeWrite != nil {
		writer.beforeWrite(writer.Header())
	}
	writer.ResponseWriter.WriteHeader(code)
}

func (writer *responseWriter) Write(body []byte) (int, error) {
	if !writer.wroteHeader {
		writer.WriteHeader(http.StatusOK)
	}
	return writer.ResponseWriter.Write(body)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (writer *responseWriter) Unwrap() http.ResponseWriter {
	return writer.ResponseWriter
}

func (writer *responseWriter) Status() int {
	if !writer.wroteHeader {
		return http.StatusOK
	}
	return writer.status
}

// # Request Tracing

// Correlation attaches a correlation ID to every request for log tracing.
//
// A client-supplied X-Correlation-ID is kept when it is 1 to 128 printable ASCII
// characters; anything else is replaced by a fresh UUIDv7.
func Correlation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Check if the client already provided a usable ID
			correlationID := request.Header.Get(constants.HeaderCorrelationID)
			if !validCorrelationID(correlationID) {
				correlationID = uuid.New()
			}

			// 2. Inject into context and response headers
			ctx := ctxutil.WithCorrelationID(request.Context(), correlationID)
			ctx, _ = ctxutil.WithRequestState(ctx)
			writer.Header().Set(constants.HeaderCorrelationID, correlationID)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

func validCorrelationID(id string) bool {
	if id == "" || len(id) > constants.CorrelationIDMaxLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// # Activity Logging

// Logging writes one record when a request arrives and one when it leaves.
// It also injects a request-specific logger into the context.
//
// The closing record is request_failed for 5xx responses and carries user_id
// once Authentication has identified the caller.
func Logging(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			startTime := time.Now()
			ctx := request.Context()

			// 1. Create a sub-logger for this specific request
			requestLogger := logger.With(
				slog.String("correlation_id", ctxutil.GetCorrelationID(ctx)),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("client_ip", ClientIP(request, trustProxy)),
			)
			ctx = ctxutil.WithLogger(ctx, requestLogger)

			requestLogger.InfoContext(ctx, "request_started", slog.String("user_agent", request.UserAgent()))

			// 2. Proceed to downstream handlers with the enriched context
			wrapped := wrapWriter(writer)
			next.ServeHTTP(wrapped, request.WithContext(ctx))

			// 3. Final log entry after the request is finished
			status := wrapped.Status()
			attrs := []any{
				slog.Int("status", status),
				slog.Int64("duration_ms", time.Since(startTime).Milliseconds()),
			}
			if state := ctxutil.GetRequestState(ctx); state != nil && state.SubjectID != "" {
				attrs = append(attrs, slog.String("user_id", state.SubjectID))
			}

			if status >= http.StatusInternalServerError {
				requestLogger.ErrorContext(ctx, "request_failed", attrs...)
				return
			}
			requestLogger.InfoContext(ctx, "request_completed", attrs...)
		})
	}
}

// # Middleware Helpers

// ClientIP returns the address used to key rate limits and logs.
//
// Proxy headers are honoured only when trustProxy is set; otherwise any client
// could pick its own rate-limit bucket.
func ClientIP(request *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := request.Header.Get(constants.HeaderXRealIP); ip != "" {
			return strings.TrimSpace(ip)
		}
		if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			return strings.TrimSpace(first)
		}
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}
