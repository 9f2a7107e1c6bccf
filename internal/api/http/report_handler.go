package http

import (
	"fmt"
	"net/http"
	"time"

	"vacation-rental-backend/internal/clock"
	"vacation-rental-backend/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportPayments returns the payments workbook for ?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Both days are included.
func (h *Handler) ExportPayments(w http.ResponseWriter, r *http.Request) {
	from, err := h.queryDate(r, "from")
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := h.queryDate(r, "to")
	if err != nil {
		writeError(w, r, err)
		return
	}

	content, err := h.svc.Reports.ExportPayments(r.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		writeError(w, r, err)
		return
	}
	filename := fmt.Sprintf("payments-%s-%s.xlsx", clock.DateOf(from), clock.DateOf(to))
	writeFile(w, xlsxContentType, filename, content)
}

// ExportMovements returns the arrivals and departures workbook for ?day=,
// defaulting to today.
func (h *Handler) ExportMovements(w http.ResponseWriter, r *http.Request) {
	day := h.svc.Clock.Now()
	if r.URL.Query().Get("day") != "" {
		var err error
		if day, err = h.queryDate(r, "day"); err != nil {
			writeError(w, r, err)
			return
		}
	}

	movements, err := h.svc.Reports.ExportMovements(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("X-Arrivals", fmt.Sprint(len(movements.Arrivals)))
	w.Header().Set("X-Departures", fmt.Sprint(len(movements.Departures)))
	writeFile(w, xlsxContentType, fmt.Sprintf("movements-%s.xlsx", clock.DateOf(movements.Day)), movements.Workbook)
}

// queryDate parses a YYYY-MM-DD query parameter as midnight in the business timezone
func (h *Handler) queryDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", errBadRequest, name)
	}
	d, err := utils.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid %s: %v", errBadRequest, name, err)
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, h.svc.Clock.Now().Location()), nil
}
