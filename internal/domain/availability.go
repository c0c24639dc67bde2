package domain

import (
	"sort"
	"time"
)

// CellKey identifies one (room, day-of-month) cell in the monthly grid.
type CellKey struct {
	RoomID int64
	Day    int
}

// Cell is the computed state of one calendar cell. Occupied cells carry the
// guest display data the calendar shows on hover.
type Cell struct {
	Occupied        bool   `json:"occupied"`
	GuestInitials   string `json:"guest_initials,omitempty"`
	GuestName       string `json:"guest_name,omitempty"`
	ReservationID   int64  `json:"reservation_id,omitempty"`
	ReservationCode string `json:"reservation_code,omitempty"`
	Checkin         Date   `json:"checkin"`
	Checkout        Date   `json:"checkout"`
}

// ComputeOccupancy derives the per-cell state of the monthly calendar grid.
// A cell is occupied iff some confirmed reservation on that room covers the
// day, where a reservation covers [checkin, checkout); the checkout day is
// free. Reservations in any other status never block a cell.
//
// Pure function of its inputs; callers re-invoke it when the visible month,
// room filter, or reservation list changes. Guests maps guest id to guest
// for display data; missing guests leave the display fields empty.
//
// If two confirmed reservations overlap on the same room and day (which
// correct booking logic should prevent), the lowest reservation id wins so
// the output stays deterministic regardless of input order.
func ComputeOccupancy(rooms []Room, reservations []Reservation, guests map[int64]Guest, year int, month time.Month) map[CellKey]Cell {
	byRoom := make(map[int64][]Reservation, len(rooms))
	for _, res := range reservations {
		if res.Status != StatusConfirmed {
			continue
		}
		byRoom[res.RoomID] = append(byRoom[res.RoomID], res)
	}
	for id := range byRoom {
		rs := byRoom[id]
		sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
	}

	days := DaysIn(year, month)
	out := make(map[CellKey]Cell, len(rooms)*days)
	for _, room := range rooms {
		for day := 1; day <= days; day++ {
			d := Date{Year: year, Month: month, Day: day}
			cell := Cell{}
			for _, res := range byRoom[room.ID] {
				if !res.Blocks(d) {
					continue
				}
				cell = Cell{
					Occupied:        true,
					ReservationID:   res.ID,
					ReservationCode: res.Code,
					Checkin:         res.Checkin,
					Checkout:        res.Checkout,
				}
				if g, ok := guests[res.GuestID]; ok {
					cell.GuestInitials = g.Initials()
					cell.GuestName = g.FullName
				}
				break // slice is id-ascending, first match wins
			}
			out[CellKey{RoomID: room.ID, Day: day}] = cell
		}
	}
	return out
}
