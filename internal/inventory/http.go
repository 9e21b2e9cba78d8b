// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package inventory

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/middleware"
	"github.com/taibuivan/stockroom/internal/platform/rbac"
	requestutil "github.com/taibuivan/stockroom/internal/platform/request"
	"github.com/taibuivan/stockroom/internal/platform/respond"
	"github.com/taibuivan/stockroom/pkg/pagination"
	"github.com/taibuivan/stockroom/pkg/uuid"
)

// MaxSearchLength bounds the ?search= parameter.
const MaxSearchLength = 100

// Handler implements the /api/v1/inventory endpoints.
type Handler struct {
	store  Store
	engine *rbac.Engine
}

// NewHandler constructs a new inventory [Handler].
func NewHandler(store Store, engine *rbac.Engine) *Handler {
	return &Handler{store: store, engine: engine}
}

// Routes returns a [chi.Router] guarded by inventory:read.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireGuard(handler.engine.RequirePermission(rbac.InventoryRead)))

	router.Get("/items", handler.listItems)
	router.Get("/items/{id}", handler.getItem)

	return router
}

func (handler *Handler) listItems(writer http.ResponseWriter, request *http.Request) {
	search := strings.TrimSpace(request.URL.Query().Get("search"))
	if len(search) > MaxSearchLength {
		respond.Error(writer, request, apperr.Validation("Search term too long", apperr.FieldError{Field: "search", Message: "must be at most 100 characters"}))
		return
	}

	filter := Filter{Search: search, Params: pagination.FromRequest(request)}

	items, total, err := handler.store.List(request.Context(), filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, items, pagination.NewMeta(filter.Params, total))
}

func (handler *Handler) getItem(writer http.ResponseWriter, request *http.Request) {
	itemID := requestutil.Param(request, "id")
	if !uuid.IsValid(itemID) {
		respond.Error(writer, request, apperr.Validation("Invalid item id", apperr.FieldError{Field: "id", Message: "must be a UUID"}))
		return
	}

	item, err := handler.store.FindByID(request.Context(), itemID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, item)
}
