package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/assetdesk/assetdesk/internal/service"
)

// writeServiceError maps a workflow error onto the HTTP surface. Nothing
// propagates to the caller as a raw error; unknown failures become 500s.
func writeServiceError(w http.ResponseWriter, err error) {
	var notFound *service.NotFoundError
	var conflict *service.ConflictError
	var stale *service.StaleAssignmentError
	var notReserved *service.NoLongerReservedError

	switch {
	case errors.Is(err, service.ErrInvalidToken):
		jsonError(w, http.StatusBadRequest, service.ErrInvalidToken.Error())
	case errors.Is(err, service.ErrAlreadyUsed):
		jsonError(w, http.StatusBadRequest, service.ErrAlreadyUsed.Error())
	case errors.Is(err, service.ErrMissingConsent):
		jsonError(w, http.StatusBadRequest, service.ErrMissingConsent.Error())
	case errors.As(err, &notFound):
		jsonError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		jsonError(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &stale):
		jsonErrorDetails(w, http.StatusBadRequest, stale.Error(),
			map[string]any{"missingItemIds": stale.MissingItemIDs})
	case errors.As(err, &notReserved):
		jsonErrorDetails(w, http.StatusBadRequest, notReserved.Error(),
			map[string]any{"itemIds": notReserved.ItemIDs})
	default:
		slog.Error("request failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
