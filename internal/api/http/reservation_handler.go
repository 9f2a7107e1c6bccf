package http

import (
	"fmt"
	"net/http"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/service"
)

type listReservationsResponse struct {
	Reservations []domain.Reservation `json:"reservations"`
	TotalCount   int32                `json:"total_count"`
	Page         int32                `json:"page"`
	PageSize     int32                `json:"page_size"`
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	filter := domain.ReservationFilter{Status: domain.ReservationStatus(r.URL.Query().Get("status"))}

	var err error
	if filter.ApartmentID, err = queryInt32(r, "apartment_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Page, err = queryInt32(r, "page"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.PageSize, err = queryInt32(r, "page_size"); err != nil {
		writeError(w, r, err)
		return
	}

	reservations, count, err := h.svc.Reservations.ListReservations(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reservations == nil {
		reservations = []domain.Reservation{}
	}
	writeJSON(w, http.StatusOK, listReservationsResponse{
		Reservations: reservations,
		TotalCount:   count,
		Page:         filter.Page,
		PageSize:     filter.PageSize,
	})
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var in service.ReservationInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	reservation, err := h.svc.Reservations.CreateReservation(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.svc.Reservations.GetReservationView(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch service.ReservationPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	reservation, err := h.svc.Reservations.UpdateReservation(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.svc.Reservations.DeleteReservation(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListReservationNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	notes, err := h.svc.Notifications.ListReservationNotifications(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// GetInvoice renders the invoice and returns the PDF. The stored copy stays
// reachable through the URL in the X-Download-URL header.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	invoice, err := h.svc.Invoices.GenerateInvoicePDF(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if invoice.DownloadURL != "" {
		w.Header().Set("X-Download-URL", invoice.DownloadURL)
	}
	writeFile(w, "application/pdf", fmt.Sprintf("%s.pdf", invoice.Number), invoice.Content)
}
