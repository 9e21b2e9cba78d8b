// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/constants"
	"github.com/taibuivan/stockroom/internal/platform/ctxutil"
	"github.com/taibuivan/stockroom/internal/platform/metrics"
	"github.com/taibuivan/stockroom/internal/platform/ratelimit"
	"github.com/taibuivan/stockroom/internal/platform/respond"
)

// # Rate Limiting

// RateLimit admits requests per client IP through store.
//
// A rejected request gets a 429 envelope with details.retry_after and a
// Retry-After header, and never reaches the handlers below. If the store
// itself fails the request is let through and the failure logged.
func RateLimit(store ratelimit.Store, trustProxy bool, registry *metrics.Metrics) func(http.Handler) http.Handler {

	// One warning per second is enough to spot a flood without amplifying it.
	sampler := &rate.Sometimes{Interval: time.Second}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()
			clientIP := ClientIP(request, trustProxy)

			decision, err := store.Allow(ctx, clientIP)
			if err != nil {
				ctxutil.GetLogger(ctx).ErrorContext(ctx, "rate_limit_backend_failed", slog.Any("error", err))
				next.ServeHTTP(writer, request)
				return
			}

			header := writer.Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				retryAfter := decision.RetryAfterSeconds()
				registry.ObserveRateLimited()
				sampler.Do(func() {
					ctxutil.GetLogger(ctx).WarnContext(ctx, "rate_limit_exceeded",
						slog.String("client_ip", clientIP),
						slog.Int("retry_after", retryAfter),
					)
				})

				header.Set(constants.HeaderRetryAfter, strconv.Itoa(retryAfter))
				respond.Error(writer, request, apperr.RateLimited(retryAfter))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
