package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/assetdesk/assetdesk/internal/service"
)

// AcceptanceHandler handles the endpoints behind the link the employee
// receives by email. Validate, accept and reject carry the tenant inside
// the signed token, so they are served without staff authentication.
type AcceptanceHandler struct {
	Service *service.Acceptance
}

type acceptRequest struct {
	AcceptTerms bool `json:"acceptTerms"`
}

type rejectRequest struct {
	Reason string `json:"reason,omitempty"`
}

type resendRequest struct {
	EmployeeID int64 `json:"employeeId"`
	ItemID     int64 `json:"itemId"`
}

// Validate handles GET /api/acceptance/validate/{token}.
func (h *AcceptanceHandler) Validate(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.Validate(r.Context(), r.PathValue("token"))
	if err != nil {
		h.writeInvalid(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"valid":     true,
		"employee":  view.Employee,
		"items":     view.Items,
		"kind":      view.Kind,
		"expiresAt": view.ExpiresAt,
	})
}

// Accept handles POST /api/acceptance/accept/{token}.
func (h *AcceptanceHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	confirmation, err := h.Service.Accept(r.Context(), r.PathValue("token"), req.AcceptTerms)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "assignment accepted",
		"itemIds":   confirmation.ItemIDs,
		"emailSent": confirmation.EmailSent,
	})
}

// Reject handles POST /api/acceptance/reject/{token}.
func (h *AcceptanceHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	confirmation, err := h.Service.Reject(r.Context(), r.PathValue("token"), req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "assignment rejected",
		"itemIds": confirmation.ItemIDs,
	})
}

// Resend handles POST /api/acceptance/resend. Unlike the token
// endpoints this one is staff-initiated, so the tenant comes from the
// request context rather than a token claim.
func (h *AcceptanceHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EmployeeID == 0 || req.ItemID == 0 {
		jsonError(w, http.StatusBadRequest, "employeeId and itemId required")
		return
	}

	result, err := h.Service.Resend(r.Context(), GetTenant(r.Context()), req.EmployeeID, req.ItemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "invitation re-sent",
		"emailSent": result.EmailSent,
	})
}

// writeInvalid renders validation failures in the {valid:false} shape
// the acceptance page consumes, keeping the status codes of the shared
// error mapping.
func (h *AcceptanceHandler) writeInvalid(w http.ResponseWriter, err error) {
	var notFound *service.NotFoundError
	var stale *service.StaleAssignmentError
	var notReserved *service.NoLongerReservedError

	status := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrAlreadyUsed):
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &stale), errors.As(err, &notReserved):
	default:
		slog.Error("validate failed", "error", err)
		jsonResponse(w, http.StatusInternalServerError, map[string]any{
			"valid":   false,
			"message": "internal error",
		})
		return
	}

	jsonResponse(w, status, map[string]any{
		"valid":   false,
		"message": err.Error(),
	})
}
