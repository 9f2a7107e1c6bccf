package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// RouteSecurityConfig maps route names to their required security level
var RouteSecurityConfig = map[string]SecurityLevel{
	// Auth - Public
	"Login":  SecurityPublic,
	"Health": SecurityPublic,

	// Files are addressed by unguessable keys and linked from emails
	"DownloadFile": SecurityPublic,

	// Users - Access Protected
	"GetMe": SecurityAccess,

	// Apartments - Access Protected
	"ListApartments":  SecurityAccess,
	"CreateApartment": SecurityAccess,
	"GetApartment":    SecurityAccess,

	// Reservations - Access Protected
	"ListReservations":             SecurityAccess,
	"CreateReservation":            SecurityAccess,
	"GetReservation":               SecurityAccess,
	"UpdateReservation":            SecurityAccess,
	"DeleteReservation":            SecurityAccess,
	"ListReservationNotifications": SecurityAccess,
	"GetInvoice":                   SecurityAccess,

	// Payments - Access Protected
	"ListPayments":        SecurityAccess,
	"RegisterPayment":     SecurityAccess,
	"RecalculatePayments": SecurityAccess,
	"CreatePayment":       SecurityAccess,
	"UpdatePayment":       SecurityAccess,
	"DeletePayment":       SecurityAccess,

	// Reports - Access Protected
	"ExportPayments":  SecurityAccess,
	"ExportMovements": SecurityAccess,

	// Admin - Access Protected
	"RunReservationStatusSweep": SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := RouteSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityAccess
}
