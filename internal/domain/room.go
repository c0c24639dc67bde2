package domain

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomCleaning    RoomStatus = "cleaning"
	RoomMaintenance RoomStatus = "maintenance"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomCleaning, RoomMaintenance:
		return true
	}
	return false
}

type Room struct {
	ID        int64      `json:"id"`
	Number    string     `json:"number"`
	Type      string     `json:"type"`
	Status    RoomStatus `json:"status"`
	MaxGuests int        `json:"max_guests"`
	// QRCode is the token printed on the in-room QR card. It never leaves
	// the staff API.
	QRCode string `json:"qr_code,omitempty"`
}
