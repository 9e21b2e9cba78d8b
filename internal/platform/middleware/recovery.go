// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/ctxutil"
	"github.com/taibuivan/stockroom/internal/platform/respond"
)

// # Reliability & Safety

// ErrorNormalization turns every failure below it into the standard error envelope.
//
// It records the masking policy in the request context (production hides
// server-side messages) and recovers panics as 500 responses carrying the
// correlation id. http.ErrAbortHandler is re-raised so net/http can abort the
// connection as intended. If the handler already started its response, the
// panic is logged and the response is left as it is.
func ErrorNormalization(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := ctxutil.WithErrorExposure(request.Context(), !production)
			request = request.WithContext(ctx)
			wrapped := wrapWriter(writer)

			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				ctxutil.GetLogger(ctx).ErrorContext(ctx, "panic_recovered",
					slog.Any("error", recovered),
					slog.String("stack", string(debug.Stack())),
				)

				if !wrapped.wroteHeader {
					respond.Error(wrapped, request, apperr.Internal(fmt.Errorf("panic: %v", recovered)))
				}
			}()

			next.ServeHTTP(wrapped, request)
		})
	}
}
