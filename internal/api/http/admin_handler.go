package http

import (
	"context"
	"net/http"

	"vacation-rental-backend/internal/logger"
)

// RunReservationStatusSweep triggers the status sweep outside its schedule
func (h *Handler) RunReservationStatusSweep(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFromContext(r.Context())
	logger.InfoContext(r.Context(), "Manual reservation status sweep requested", "userID", caller.ID, "username", caller.Username)

	// Transitions commit one by one; a client disconnect must not drop the
	// notifications of those already made.
	result, err := h.svc.Sweeper.RunOnce(context.WithoutCancel(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
