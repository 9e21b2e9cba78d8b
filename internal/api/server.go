// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, the security pipeline, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/stockroom/internal/inventory"
	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/config"
	"github.com/taibuivan/stockroom/internal/platform/constants"
	"github.com/taibuivan/stockroom/internal/platform/metrics"
	"github.com/taibuivan/stockroom/internal/platform/middleware"
	"github.com/taibuivan/stockroom/internal/platform/respond"
	"github.com/taibuivan/stockroom/internal/users/access"
	"github.com/taibuivan/stockroom/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler. Always 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. 200 when every dependency answers.
	Readiness http.HandlerFunc

	// Auth handles authentication and account routes.
	Auth *auth.Handler

	// Access handles role and permission administration.
	Access *access.Handler

	// Inventory serves the stock catalogue.
	Inventory *inventory.Handler

	// Metrics exposes /metrics when set.
	Metrics *metrics.Metrics
}

// # Server Initialization

// NewServer constructs the chi router with the security pipeline and
// registers all route groups.
func NewServer(cfg *config.Config, log *slog.Logger, pipeline middleware.Options, handlers Handlers) *Server {
	router := NewRouter(pipeline, handlers)

	return &Server{
		router: router,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// NewRouter builds the full route tree. It is split from [NewServer] so tests
// can drive it with httptest.
func NewRouter(pipeline middleware.Options, handlers Handlers) *chi.Mux {
	router := chi.NewRouter()

	// # Middleware Chain
	// Correlation → Logging → Metrics → Errors → Headers → CORS → Body → RateLimit → Auth
	router.Use(middleware.Pipeline(pipeline)...)
	router.Use(chimw.CleanPath)
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))

	router.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		respond.Error(writer, request, apperr.NotFound("Route"))
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, request *http.Request) {
		body := respond.Body(request, apperr.Validation("Method not allowed"))
		respond.JSON(writer, http.StatusMethodNotAllowed, respond.ErrorEnvelope{Error: body})
	})

	// # Infrastructure Endpoints
	router.Get("/", index)
	if handlers.Liveness != nil {
		router.Get("/health", handlers.Liveness)
	}
	if handlers.Readiness != nil {
		router.Get("/ready", handlers.Readiness)
	}
	if handlers.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", handlers.Metrics.Handler())
	}

	// # Application API
	router.Route("/api/v1", func(api chi.Router) {
		if handlers.Auth != nil {
			api.Mount("/auth", handlers.Auth.Routes())
		}
		if handlers.Access != nil {
			api.Mount("/rbac", handlers.Access.Routes())
		}
		if handlers.Inventory != nil {
			api.Mount("/inventory", handlers.Inventory.Routes())
		}
	})

	return router
}

func index(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, map[string]string{
		"name":    constants.AppName,
		"version": constants.AppVersion,
		"status":  "ok",
	})
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (server *Server) ListenAndServe() error {
	server.log.Info("server_starting", slog.String("addr", server.httpServer.Addr))
	return server.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (server *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return server.httpServer.Shutdown(ctx)
}
