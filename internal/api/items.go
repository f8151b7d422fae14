package api

import (
	"net/http"
	"strconv"

	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/store"
)

// ItemsHandler handles asset and license catalog endpoints.
type ItemsHandler struct {
	DBs *db.Registry
}

type itemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"status"`
}

// List handles GET /api/items. Supports ?kind= and ?status= filters.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	status := r.URL.Query().Get("status")
	if kind != "" && !model.ValidKind(kind) {
		jsonError(w, http.StatusBadRequest, "invalid kind filter")
		return
	}
	if status != "" && !model.ValidItemStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	database, err := h.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	items, err := store.ListItems(r.Context(), database, kind, status)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if !model.ValidKind(req.Kind) {
		jsonError(w, http.StatusBadRequest, "kind must be asset or license")
		return
	}
	if req.Quantity < 1 {
		jsonError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	database, err := h.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	item, err := store.CreateItem(r.Context(), database, req.Name, req.Description, req.Kind, req.Quantity)
	if isDuplicateError(err) {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}, including the per-employee distribution.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	database, err := h.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	item, err := store.GetItem(r.Context(), database, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	distribution, err := store.GetItemDistribution(r.Context(), database, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item distribution")
		return
	}
	if distribution == nil {
		distribution = []model.Assignment{}
	}

	assigned := 0
	for _, a := range distribution {
		assigned += a.Quantity
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item":         item,
		"distribution": distribution,
		"assigned":     assigned,
		"available":    item.Quantity - assigned,
	})
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if !model.ValidItemStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.Quantity < 1 {
		jsonError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	database, err := h.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	if err := store.UpdateItem(r.Context(), database, id, req.Name, req.Description, req.Status, req.Quantity); err != nil {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item updated"})
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	database, err := h.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	if err := store.DeleteItem(r.Context(), database, id); err != nil {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}
