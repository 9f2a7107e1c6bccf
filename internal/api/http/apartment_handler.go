package http

import (
	"net/http"

	"vacation-rental-backend/internal/domain"
)

func (h *Handler) ListApartments(w http.ResponseWriter, r *http.Request) {
	apartments, err := h.svc.Apartments.ListApartments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if apartments == nil {
		apartments = []domain.Apartment{}
	}
	writeJSON(w, http.StatusOK, apartments)
}

func (h *Handler) CreateApartment(w http.ResponseWriter, r *http.Request) {
	var a domain.Apartment
	if err := decodeJSON(r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	a.ID = 0

	if err := h.svc.Apartments.AddApartment(r.Context(), &a); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) GetApartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.svc.Apartments.GetApartment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
