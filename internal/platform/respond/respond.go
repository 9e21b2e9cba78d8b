// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// Successful payloads are wrapped in {"data": ...}; every failure, whatever its
// origin, leaves the server as {"error": {message, code, details, correlation_id}}.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/ctxutil"
	"github.com/taibuivan/stockroom/pkg/pagination"
)

// MaskedMessage replaces server-side error messages when errors are not exposed.
const MaskedMessage = "Internal server error"

// SuccessEnvelope is the JSON envelope for successful responses.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// PaginatedEnvelope is the JSON envelope for paginated list responses.
type PaginatedEnvelope struct {
	Data any             `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

// ErrorBody is the inner object of an [ErrorEnvelope].
type ErrorBody struct {
	Message       string         `json:"message"`
	Code          string         `json:"code"`
	Details       map[string]any `json:"details"`
	CorrelationID string         `json:"correlation_id"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// Created writes a 201 Created response with data wrapped in the standard success envelope.
func Created(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Data: data})
}

// Paginated writes a 200 OK response with a page of data and its metadata block.
func Paginated(writer http.ResponseWriter, data any, metadata pagination.Meta) {
	JSON(writer, http.StatusOK, PaginatedEnvelope{Data: data, Meta: metadata})
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Error converts any Go error into a standardized JSON API error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	ctx := request.Context()
	appError := apperr.Normalize(err)
	correlationID := ctxutil.GetCorrelationID(ctx)

	// Server-side failures are always logged with their cause.
	if appError.Kind.ServerSide() {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "api_server_error",
			slog.String("code", appError.Code()),
			slog.String("message", appError.Message),
			slog.String("correlation_id", correlationID),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus(), ErrorEnvelope{Error: Body(request, appError)})
}

// Body renders the client-facing error body, applying the masking policy of the request.
func Body(request *http.Request, appError *apperr.AppError) ErrorBody {
	ctx := request.Context()
	body := ErrorBody{
		Message:       appError.Message,
		Code:          appError.Code(),
		Details:       appError.Details,
		CorrelationID: ctxutil.GetCorrelationID(ctx),
	}

	if appError.Kind.ServerSide() && !ctxutil.ExposeErrors(ctx) {
		body.Message = MaskedMessage
		body.Details = nil
	}

	if body.Details == nil {
		body.Details = map[string]any{}
	}
	return body
}
