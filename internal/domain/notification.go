package domain

import "time"

type NotificationKind string

const (
	NotificationKindPayment      NotificationKind = "payment"
	NotificationKindStatusChange NotificationKind = "status_change"
	NotificationKindDailyReport  NotificationKind = "daily_report"
)

type NotificationStatus string

const (
	NotificationStatusSent     NotificationStatus = "sent"
	NotificationStatusFailed   NotificationStatus = "failed"
	// Delivery turned off in configuration; the message was only logged.
	NotificationStatusDisabled NotificationStatus = "disabled"
)

// Notification records one outbound message so delivery failures stay visible
// after the request or sweep that caused them has finished.
type Notification struct {
	ID            int32              `json:"id"`
	ReservationID *int32             `json:"reservation_id,omitempty"`
	Kind          NotificationKind   `json:"kind"`
	Recipient     string             `json:"recipient"`
	Subject       string             `json:"subject"`
	Status        NotificationStatus `json:"status"`
	Error         string             `json:"error,omitempty"`
	Attributes    map[string]string  `json:"attributes"`
	CreatedAt     time.Time          `json:"created_at"`
}
