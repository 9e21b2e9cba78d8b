// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/constants"
	"github.com/taibuivan/stockroom/internal/platform/respond"
)

// # Security Headers

// securityHeaders returns the header set for the environment.
func securityHeaders(production bool) [][2]string {
	headers := [][2]string{
		{"X-Content-Type-Options", constants.ContentTypeOptions},
		{"X-Frame-Options", constants.FrameOptions},
		{"X-XSS-Protection", constants.XSSProtection},
		{"Referrer-Policy", constants.ReferrerPolicy},
		{"Permissions-Policy", constants.PermissionsPolicy},
	}
	if production {
		headers = append(headers,
			[2]string{"Strict-Transport-Security", constants.StrictTransport},
			[2]string{"Content-Security-Policy", constants.ProductionContentSecurityPolicy},
		)
		return headers
	}
	return append(headers, [2]string{"Content-Security-Policy", constants.ContentSecurityPolicy})
}

// SecurityHeaders adds the hardening headers to every response.
//
// Headers are set before the handler runs, so responses that never call Write
// (an implicit 200, a panic caught further out) still carry them. They are
// checked again when the response is first written to restore any the handler
// deleted. A header the handler set itself is never replaced.
func SecurityHeaders(production bool) func(http.Handler) http.Handler {
	headers := securityHeaders(production)
	apply := func(header http.Header) {
		for _, pair := range headers {
			if header.Get(pair[0]) == "" {
				header.Set(pair[0], pair[1])
			}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			apply(writer.Header())

			wrapped := wrapWriter(writer)
			wrapped.beforeWrite = apply

			next.ServeHTTP(wrapped, request)
		})
	}
}

// # Cross-Origin Resource Sharing

const (
	corsDevelopmentMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsProductionMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowedHeaders     = "Accept, Authorization, Content-Type, " + constants.HeaderCorrelationID

	// 24 hours
	corsMaxAge = "86400"
)

// CORS handles Cross-Origin Resource Sharing.
//
// Outside production every origin is accepted. In production only the
// configured origins are; a "*" entry is refused by config validation.
// Pre-flight requests are answered here and never reach rate limiting or
// authentication.
func CORS(allowedOrigins []string, production bool) func(http.Handler) http.Handler {
	methods := corsDevelopmentMethods
	if production {
		methods = corsProductionMethods
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Same-origin and non-browser requests carry no Origin
			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Check if the origin is allowed
			allowed := !production || slices.Contains(allowedOrigins, origin)
			header := writer.Header()
			header.Add("Vary", constants.HeaderOrigin)

			if allowed {
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Set("Access-Control-Expose-Headers", constants.HeaderCorrelationID)
			}

			// 3. Handle pre-flight requests
			if request.Method == http.MethodOptions && request.Header.Get("Access-Control-Request-Method") != "" {
				if allowed {
					header.Set("Access-Control-Allow-Methods", methods)
					header.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
					header.Set("Access-Control-Max-Age", corsMaxAge)
				}
				writer.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Request Size

// BodyLimit refuses bodies larger than maxBytes.
//
// A declared Content-Length over the limit is rejected up front. Bodies without
// a length are capped with http.MaxBytesReader and fail while being decoded.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.ContentLength > maxBytes {
				respond.Error(writer, request, apperr.Validation("Request too large").
					WithDetail("limit_bytes", maxBytes))
				return
			}

			if request.Body != nil && !strings.EqualFold(request.Method, http.MethodGet) {
				request.Body = http.MaxBytesReader(writer, request.Body, maxBytes)
			}
			next.ServeHTTP(writer, request)
		})
	}
}
