package domain_test

import (
	"testing"
	"time"

	"hotel_gestion/internal/domain"
)

func TestComputeOccupancy_ConfirmedRange(t *testing.T) {
	rooms := []domain.Room{{ID: 101, Number: "101"}}
	guests := map[int64]domain.Guest{7: {ID: 7, FullName: "Ana García"}}
	reservations := []domain.Reservation{{
		ID: 1, Code: "RES-A1", RoomID: 101, GuestID: 7,
		Status:  domain.StatusConfirmed,
		Checkin: date(2025, time.March, 10), Checkout: date(2025, time.March, 13),
	}}

	cells := domain.ComputeOccupancy(rooms, reservations, guests, 2025, time.March)

	if len(cells) != 31 {
		t.Fatalf("expected a cell per day of March, got %d", len(cells))
	}
	for day := 1; day <= 31; day++ {
		cell := cells[domain.CellKey{RoomID: 101, Day: day}]
		want := day >= 10 && day < 13
		if cell.Occupied != want {
			t.Errorf("day %d: occupied=%v want %v", day, cell.Occupied, want)
		}
	}

	occ := cells[domain.CellKey{RoomID: 101, Day: 11}]
	if occ.GuestInitials != "AG" || occ.GuestName != "Ana García" || occ.ReservationCode != "RES-A1" {
		t.Fatalf("display data wrong: %+v", occ)
	}
	if occ.Checkin != date(2025, time.March, 10) || occ.Checkout != date(2025, time.March, 13) {
		t.Fatalf("interval wrong: %+v", occ)
	}
}

func TestComputeOccupancy_IgnoresNonConfirmed(t *testing.T) {
	rooms := []domain.Room{{ID: 1}}
	var reservations []domain.Reservation
	for i, st := range []domain.ReservationStatus{
		domain.StatusPending, domain.StatusCancelled, domain.StatusCompleted,
	} {
		reservations = append(reservations, domain.Reservation{
			ID: int64(i + 1), RoomID: 1, Status: st,
			Checkin: date(2025, time.May, 1), Checkout: date(2025, time.May, 31),
		})
	}

	cells := domain.ComputeOccupancy(rooms, reservations, nil, 2025, time.May)
	for day := 1; day <= 31; day++ {
		if cells[domain.CellKey{RoomID: 1, Day: day}].Occupied {
			t.Fatalf("day %d occupied by non-confirmed reservation", day)
		}
	}
}

func TestComputeOccupancy_OverlapTieBreakLowestID(t *testing.T) {
	rooms := []domain.Room{{ID: 5}}
	guests := map[int64]domain.Guest{
		1: {ID: 1, FullName: "First Guest"},
		2: {ID: 2, FullName: "Second Guest"},
	}
	// Two confirmed reservations overlapping the same days; the input order
	// puts the higher id first to check the sort does its job.
	reservations := []domain.Reservation{
		{
			ID: 9, Code: "RES-B", RoomID: 5, GuestID: 2, Status: domain.StatusConfirmed,
			Checkin: date(2025, time.June, 3), Checkout: date(2025, time.June, 8),
		},
		{
			ID: 4, Code: "RES-A", RoomID: 5, GuestID: 1, Status: domain.StatusConfirmed,
			Checkin: date(2025, time.June, 5), Checkout: date(2025, time.June, 10),
		},
	}

	cells := domain.ComputeOccupancy(rooms, reservations, guests, 2025, time.June)

	// On contested days the lowest id must win, deterministically.
	contested := cells[domain.CellKey{RoomID: 5, Day: 6}]
	if !contested.Occupied || contested.ReservationID != 4 {
		t.Fatalf("expected reservation 4 on contested day, got %+v", contested)
	}
	// Days covered only by one reservation keep that reservation.
	only9 := cells[domain.CellKey{RoomID: 5, Day: 3}]
	if !only9.Occupied || only9.ReservationID != 9 {
		t.Fatalf("expected reservation 9 on day 3, got %+v", only9)
	}
}

func TestComputeOccupancy_MultipleRoomsIndependent(t *testing.T) {
	rooms := []domain.Room{{ID: 1}, {ID: 2}}
	reservations := []domain.Reservation{{
		ID: 1, RoomID: 1, Status: domain.StatusConfirmed,
		Checkin: date(2025, time.April, 1), Checkout: date(2025, time.April, 3),
	}}

	cells := domain.ComputeOccupancy(rooms, reservations, nil, 2025, time.April)
	if !cells[domain.CellKey{RoomID: 1, Day: 2}].Occupied {
		t.Fatal("room 1 day 2 should be occupied")
	}
	if cells[domain.CellKey{RoomID: 2, Day: 2}].Occupied {
		t.Fatal("room 2 must not inherit room 1's reservation")
	}
}

func TestComputeOccupancy_MonthBoundaries(t *testing.T) {
	rooms := []domain.Room{{ID: 1}}
	// Stay spans the end of February into March of a leap year.
	reservations := []domain.Reservation{{
		ID: 1, RoomID: 1, Status: domain.StatusConfirmed,
		Checkin: date(2024, time.February, 27), Checkout: date(2024, time.March, 2),
	}}

	feb := domain.ComputeOccupancy(rooms, reservations, nil, 2024, time.February)
	if len(feb) != 29 {
		t.Fatalf("leap February should have 29 cells, got %d", len(feb))
	}
	for day := 27; day <= 29; day++ {
		if !feb[domain.CellKey{RoomID: 1, Day: day}].Occupied {
			t.Errorf("feb %d should be occupied", day)
		}
	}

	mar := domain.ComputeOccupancy(rooms, reservations, nil, 2024, time.March)
	if !mar[domain.CellKey{RoomID: 1, Day: 1}].Occupied {
		t.Error("mar 1 should be occupied")
	}
	if mar[domain.CellKey{RoomID: 1, Day: 2}].Occupied {
		t.Error("checkout day mar 2 must be free")
	}
}
