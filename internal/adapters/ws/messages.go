package ws

import "hotel_gestion/internal/domain"

// Message types on the staff notification channel. Every frame is JSON with
// a type discriminator.
const (
	// client -> server
	TypePing = "ping"

	// server -> client
	TypeAuthAck      = "auth_ack"
	TypeSnapshot     = "snapshot"
	TypeNotification = "notification"
	TypeHeartbeatAck = "heartbeat_ack"
	TypeError        = "error"
)

type Message struct {
	Type          string                `json:"type"`
	Notifications []domain.Notification `json:"notifications,omitempty"` // snapshot
	Notification  *domain.Notification  `json:"notification,omitempty"`  // single event
	Error         string                `json:"error,omitempty"`
}
