package api

import (
	"net/http"
	"strconv"

	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/store"
)

// ActivityHandler serves the append-only audit log.
type ActivityHandler struct {
	DBs *db.Registry
}

// List handles GET /api/activity. Supports ?employeeId=, ?itemId= and
// ?limit= query parameters.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	var employeeID, itemID int64
	limit := 100

	if v := r.URL.Query().Get("employeeId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid employeeId filter")
			return
		}
		employeeID = id
	}
	if v := r.URL.Query().Get("itemId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid itemId filter")
			return
		}
		itemID = id
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			jsonError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	database, err := h.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	entries, err := store.ListActivity(r.Context(), database, employeeID, itemID, limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list activity")
		return
	}
	if entries == nil {
		entries = []model.ActivityEntry{}
	}

	jsonResponse(w, http.StatusOK, entries)
}
