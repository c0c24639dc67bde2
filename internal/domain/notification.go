package domain

import "time"

type NotificationType string

const (
	NotifNewReservation NotificationType = "new_reservation"
	NotifNewRequest     NotificationType = "new_request"
	NotifCheckout       NotificationType = "checkout"
	NotifSweep          NotificationType = "auto_cancel"
)

type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
