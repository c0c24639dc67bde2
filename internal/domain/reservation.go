package domain

import "time"

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition enforces the lifecycle:
// pending -> confirmed | cancelled, confirmed -> completed | cancelled.
func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	}
	return false
}

type Reservation struct {
	ID        int64             `json:"id"`
	Code      string            `json:"code"`
	RoomID    int64             `json:"room_id"`
	GuestID   int64             `json:"guest_id"`
	Checkin   Date              `json:"checkin"`
	Checkout  Date              `json:"checkout"`
	Guests    int               `json:"guests"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// ValidateDates rejects zero-night and negative-night stays. Checkin and
// checkout are calendar dates; the stay occupies [checkin, checkout).
func (r Reservation) ValidateDates() error {
	if !r.Checkin.Before(r.Checkout) {
		return ErrInvalidDateRange
	}
	return nil
}

// Blocks reports whether the reservation occupies the room on day d.
// Only confirmed reservations block availability, and the checkout day
// itself is free.
func (r Reservation) Blocks(d Date) bool {
	if r.Status != StatusConfirmed {
		return false
	}
	return !d.Before(r.Checkin) && d.Before(r.Checkout)
}

// Overdue reports whether a pending reservation's checkin date has already
// passed, making it a candidate for the expire sweep.
func (r Reservation) Overdue(today Date) bool {
	return r.Status == StatusPending && r.Checkin.Before(today)
}
