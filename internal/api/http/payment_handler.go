package http

import (
	"net/http"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/service"
)

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	payments, err := h.svc.Payments.ListPayments(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// RegisterPayment records a payment and returns the reservation with its
// recomputed balance.
func (h *Handler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.PaymentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	reservation, err := h.svc.Payments.RegisterPayment(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

func (h *Handler) RecalculatePayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	reservation, err := h.svc.Payments.RecalculateReservationPayments(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// A missing reservation is a no-op
	if reservation == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var in service.PaymentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	payment, err := h.svc.Payments.CreatePayment(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch service.PaymentPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	payment, err := h.svc.Payments.UpdatePayment(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.svc.Payments.DeletePayment(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
