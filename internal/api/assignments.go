package api

import (
	"net/http"
	"strconv"

	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/service"
	"github.com/assetdesk/assetdesk/internal/store"
)

// AssignmentsHandler handles the staff-facing assignment workflow
// endpoints. The acceptance endpoints the employee follows are in
// AcceptanceHandler.
type AssignmentsHandler struct {
	Service *service.Assignments
}

type assignRequest struct {
	ItemIDs    []int64       `json:"itemIds"`
	Quantities map[int64]int `json:"quantities,omitempty"`
}

type removeRequest struct {
	ItemIDs    []int64       `json:"itemIds"`
	Quantities map[int64]int `json:"quantities,omitempty"`
	Reason     string        `json:"reason,omitempty"`
}

// Assign handles POST /api/assign/{employeeID}.
func (h *AssignmentsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(r.PathValue("employeeID"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ItemIDs) == 0 {
		jsonError(w, http.StatusBadRequest, "itemIds required")
		return
	}
	for id, qty := range req.Quantities {
		if qty < 1 {
			jsonError(w, http.StatusBadRequest, "quantity for item "+strconv.FormatInt(id, 10)+" must be at least 1")
			return
		}
	}

	result, err := h.Service.Assign(r.Context(), GetTenant(r.Context()), employeeID, req.ItemIDs, req.Quantities)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message":         "items reserved, acceptance email sent",
		"assignedItemIds": result.ReservedItemIDs,
		"skippedItemIds":  result.SkippedItemIDs,
		"employee":        result.Employee,
		"expiresAt":       result.ExpiresAt,
		"emailSent":       result.EmailSent,
	})
}

// Remove handles POST /api/remove/{employeeID}.
func (h *AssignmentsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(r.PathValue("employeeID"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	var req removeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ItemIDs) == 0 {
		jsonError(w, http.StatusBadRequest, "itemIds required")
		return
	}
	for id, qty := range req.Quantities {
		if qty < 1 {
			jsonError(w, http.StatusBadRequest, "quantity for item "+strconv.FormatInt(id, 10)+" must be at least 1")
			return
		}
	}

	removed, err := h.Service.Remove(r.Context(), GetTenant(r.Context()), employeeID, req.ItemIDs, req.Quantities, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	employee := h.employeeFor(r, employeeID)
	jsonResponse(w, http.StatusOK, map[string]any{
		"message":        "items removed",
		"removedItemIds": removed,
		"employee":       employee,
	})
}

func (h *AssignmentsHandler) employeeFor(r *http.Request, employeeID int64) *model.Employee {
	database, err := h.Service.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		return nil
	}
	employee, err := store.GetEmployee(r.Context(), database, employeeID)
	if err != nil {
		return nil
	}
	return employee
}
