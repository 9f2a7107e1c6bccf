package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"vacation-rental-backend/internal/clock"
	"vacation-rental-backend/internal/jobs"
	"vacation-rental-backend/internal/security"
	"vacation-rental-backend/internal/service"
	"vacation-rental-backend/internal/storage"
)

// StatusSweepTrigger runs the reservation status sweep on demand
type StatusSweepTrigger interface {
	RunOnce(ctx context.Context) (jobs.SweepResult, error)
}

// Services holds everything the HTTP handlers call into
type Services struct {
	Auth          service.AuthService
	Users         service.UserService
	Apartments    service.ApartmentService
	Reservations  service.ReservationService
	Payments      service.PaymentService
	Invoices      service.InvoiceService
	Reports       service.ReportService
	Notifications service.NotificationService
	Sweeper       StatusSweepTrigger
	Files         storage.FileStorage
	// Clock supplies "today" and the business timezone for date parameters
	Clock clock.Clock
}

type Handler struct {
	svc *Services
}

func NewHandler(svc *Services) *Handler {
	if svc.Clock == nil {
		svc.Clock = clock.System(nil)
	}
	return &Handler{svc: svc}
}

// NewRouter registers every route. Route names are the keys of
// config.RouteSecurityConfig.
func NewRouter(svc *Services, tokenManager security.TokenManager) *mux.Router {
	h := NewHandler(svc)
	router := mux.NewRouter()
	router.Use(requestIDMiddleware, loggingMiddleware, NewAuthMiddleware(tokenManager).Handler)

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet).Name("Health")
	router.HandleFunc("/api/auth/login", h.Login).Methods(http.MethodPost).Name("Login")
	router.HandleFunc("/api/me", h.GetMe).Methods(http.MethodGet).Name("GetMe")

	router.HandleFunc("/api/apartments", h.ListApartments).Methods(http.MethodGet).Name("ListApartments")
	router.HandleFunc("/api/apartments", h.CreateApartment).Methods(http.MethodPost).Name("CreateApartment")
	router.HandleFunc("/api/apartments/{id:[0-9]+}", h.GetApartment).Methods(http.MethodGet).Name("GetApartment")

	router.HandleFunc("/api/reservations", h.ListReservations).Methods(http.MethodGet).Name("ListReservations")
	router.HandleFunc("/api/reservations", h.CreateReservation).Methods(http.MethodPost).Name("CreateReservation")
	router.HandleFunc("/api/reservations/{id:[0-9]+}", h.GetReservation).Methods(http.MethodGet).Name("GetReservation")
	router.HandleFunc("/api/reservations/{id:[0-9]+}", h.UpdateReservation).Methods(http.MethodPut).Name("UpdateReservation")
	router.HandleFunc("/api/reservations/{id:[0-9]+}", h.DeleteReservation).Methods(http.MethodDelete).Name("DeleteReservation")
	router.HandleFunc("/api/reservations/{id:[0-9]+}/notifications", h.ListReservationNotifications).Methods(http.MethodGet).Name("ListReservationNotifications")
	router.HandleFunc("/api/reservations/{id:[0-9]+}/invoice", h.GetInvoice).Methods(http.MethodGet).Name("GetInvoice")

	router.HandleFunc("/api/reservations/{id:[0-9]+}/payments", h.ListPayments).Methods(http.MethodGet).Name("ListPayments")
	router.HandleFunc("/api/reservations/{id:[0-9]+}/payments", h.RegisterPayment).Methods(http.MethodPost).Name("RegisterPayment")
	router.HandleFunc("/api/reservations/{id:[0-9]+}/recalculate", h.RecalculatePayments).Methods(http.MethodPost).Name("RecalculatePayments")
	router.HandleFunc("/api/payments", h.CreatePayment).Methods(http.MethodPost).Name("CreatePayment")
	router.HandleFunc("/api/payments/{id:[0-9]+}", h.UpdatePayment).Methods(http.MethodPut).Name("UpdatePayment")
	router.HandleFunc("/api/payments/{id:[0-9]+}", h.DeletePayment).Methods(http.MethodDelete).Name("DeletePayment")

	router.HandleFunc("/api/reports/payments", h.ExportPayments).Methods(http.MethodGet).Name("ExportPayments")
	router.HandleFunc("/api/reports/movements", h.ExportMovements).Methods(http.MethodGet).Name("ExportMovements")

	router.HandleFunc("/api/admin/reservation-status/run", h.RunReservationStatusSweep).Methods(http.MethodPost).Name("RunReservationStatusSweep")

	router.HandleFunc("/api/files/{key:.+}", h.DownloadFile).Methods(http.MethodGet).Name("DownloadFile")

	return router
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
