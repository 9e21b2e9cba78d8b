// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/stockroom/internal/platform/middleware"
	"github.com/taibuivan/stockroom/internal/platform/rbac"
	requestutil "github.com/taibuivan/stockroom/internal/platform/request"
	"github.com/taibuivan/stockroom/internal/platform/respond"
)

// Handler implements the /api/v1/rbac endpoints.
type Handler struct {
	accessService *Service
	engine        *rbac.Engine
}

// NewHandler constructs a new access [Handler].
func NewHandler(service *Service, engine *rbac.Engine) *Handler {
	return &Handler{accessService: service, engine: engine}
}

// Routes returns a [chi.Router] with each route behind its permission guard.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	readRoles := middleware.RequireGuard(handler.engine.RequirePermission(rbac.RolesRead))
	readUsers := middleware.RequireGuard(handler.engine.RequirePermission(rbac.UsersRead))
	updateUsers := middleware.RequireGuard(handler.engine.RequirePermission(rbac.UsersUpdate))

	// Catalog
	router.With(readRoles).Get("/permissions", handler.listPermissions)
	router.With(readRoles).Get("/roles", handler.listRoles)
	router.With(readRoles).Get("/roles/{name}", handler.getRole)

	// User administration
	router.With(readUsers).Get("/users/{id}/permissions", handler.userPermissions)
	router.With(readUsers).Get("/users/{id}/role", handler.userRole)
	router.With(updateUsers).Post("/users/{id}/role/{name}", handler.assignRole)
	router.With(updateUsers).Delete("/users/{id}/role", handler.removeRole)

	// Self-service
	router.Get("/my-permissions", handler.myPermissions)
	router.Get("/my-role", handler.myRole)

	return router
}

type messageResponse struct {
	Message string `json:"message"`
}

// # Catalog

func (handler *Handler) listPermissions(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, handler.accessService.Permissions())
}

func (handler *Handler) listRoles(writer http.ResponseWriter, request *http.Request) {
	roles, err := handler.accessService.Roles(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, roles)
}

func (handler *Handler) getRole(writer http.ResponseWriter, request *http.Request) {
	role, err := handler.accessService.Role(requestutil.Param(request, "name"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, role)
}

// # User Administration

func (handler *Handler) userPermissions(writer http.ResponseWriter, request *http.Request) {
	permissions, err := handler.accessService.UserPermissions(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, permissions)
}

func (handler *Handler) userRole(writer http.ResponseWriter, request *http.Request) {
	info, err := handler.accessService.UserRole(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, info)
}

/*
AssignRole gives a user a role.

POST /api/v1/rbac/users/{id}/role/{name}

Response:
  - 200: message
  - 404: NOT_FOUND_ERROR for an unknown user or a role outside the catalog
*/
func (handler *Handler) assignRole(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	message, err := handler.accessService.AssignRole(request.Context(), actor,
		requestutil.Param(request, "id"),
		requestutil.Param(request, "name"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, messageResponse{Message: message})
}

func (handler *Handler) removeRole(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	message, err := handler.accessService.RemoveRole(request.Context(), actor, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, messageResponse{Message: message})
}

// # Self-Service

func (handler *Handler) myPermissions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	permissions, err := handler.accessService.UserPermissions(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, permissions)
}

func (handler *Handler) myRole(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	info, err := handler.accessService.UserRole(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, info)
}
