package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/store"
)

// DashboardHandler serves the aggregate overview.
type DashboardHandler struct {
	DBs *db.Registry
}

// Get handles GET /api/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	database, err := h.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	kinds, err := store.SummarizeKinds(r.Context(), database)
	if err != nil {
		slog.Error("failed to summarize kinds", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}
	if kinds == nil {
		kinds = []store.KindSummary{}
	}

	pending, err := store.CountPendingReservations(r.Context(), database, time.Now())
	if err != nil {
		slog.Error("failed to count pending reservations", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	recent, err := store.ListActivity(r.Context(), database, 0, 0, 10)
	if err != nil {
		slog.Error("failed to list recent activity", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}
	if recent == nil {
		recent = []model.ActivityEntry{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"kinds":               kinds,
		"pendingReservations": pending,
		"recentActivity":      recent,
	})
}
