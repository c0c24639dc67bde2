package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_gestion/internal/adapters/observability"
	"hotel_gestion/internal/domain"
)

type ReservationService struct {
	reservations domain.ReservationRepository
	rooms        domain.RoomRepository
	guests       domain.GuestRepository
	notifier     *NotificationService
	loc          *time.Location
}

func NewReservationService(
	res domain.ReservationRepository,
	rooms domain.RoomRepository,
	guests domain.GuestRepository,
	notifier *NotificationService,
	loc *time.Location,
) *ReservationService {
	if loc == nil {
		loc = time.Local
	}
	return &ReservationService{reservations: res, rooms: rooms, guests: guests, notifier: notifier, loc: loc}
}

type CreateReservationInput struct {
	RoomID    int64
	GuestName string
	Email     string
	Phone     string
	Document  string
	Checkin   domain.Date
	Checkout  domain.Date
	Guests    int
}

// Create registers a new pending reservation. Zero-night and negative-night
// stays are rejected before anything is persisted.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (domain.Reservation, error) {
	res := domain.Reservation{
		RoomID:   in.RoomID,
		Checkin:  in.Checkin,
		Checkout: in.Checkout,
		Guests:   in.Guests,
		Status:   domain.StatusPending,
	}
	if err := res.ValidateDates(); err != nil {
		return domain.Reservation{}, err
	}

	room, err := s.rooms.GetRoom(ctx, in.RoomID)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("room %d: %w", in.RoomID, err)
	}
	if in.Guests < 1 || (room.MaxGuests > 0 && in.Guests > room.MaxGuests) {
		return domain.Reservation{}, fmt.Errorf("%w: room %s holds at most %d guests",
			domain.ErrInvalidDateRange, room.Number, room.MaxGuests)
	}

	g := domain.Guest{FullName: in.GuestName, Email: in.Email, Phone: in.Phone, Document: in.Document}
	if err := s.guests.UpsertGuest(ctx, &g); err != nil {
		return domain.Reservation{}, err
	}
	res.GuestID = g.ID
	res.Code = newReservationCode()

	if err := s.reservations.CreateReservation(ctx, &res); err != nil {
		return domain.Reservation{}, err
	}

	s.notifier.Notify(ctx, domain.NotifNewReservation,
		"Nueva reserva",
		fmt.Sprintf("Reserva %s para la habitación %s (%s a %s)", res.Code, room.Number, res.Checkin, res.Checkout))

	return res, nil
}

// newReservationCode derives a short staff-readable code from a UUID.
func newReservationCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "RES-" + raw[:8]
}

// List returns reservations enriched with room/guest display data and the
// overdue flag computed against today in the operator's zone.
func (s *ReservationService) List(ctx context.Context, q domain.ReservationsQuery) ([]domain.ReservationView, error) {
	items, err := s.reservations.ListReservations(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []domain.ReservationView{}, nil
	}

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	roomsByID := make(map[int64]domain.Room, len(rooms))
	for _, r := range rooms {
		roomsByID[r.ID] = r
	}

	guestIDs := make([]int64, 0, len(items))
	for _, r := range items {
		guestIDs = append(guestIDs, r.GuestID)
	}
	guests, err := s.guests.ListGuestsByIDs(ctx, guestIDs)
	if err != nil {
		return nil, err
	}

	today := domain.Today(s.loc)
	out := make([]domain.ReservationView, 0, len(items))
	for _, r := range items {
		v := domain.ReservationView{Reservation: r, Overdue: r.Overdue(today)}
		if room, ok := roomsByID[r.RoomID]; ok {
			v.RoomNumber = room.Number
		}
		if g, ok := guests[r.GuestID]; ok {
			v.GuestName = g.FullName
		}
		out = append(out, v)
	}
	return out, nil
}

// Transition moves a reservation through its lifecycle. Confirming also
// checks for overlapping confirmed reservations on the room and refuses
// with ErrConflict; nothing in the original booking flow prevented the
// double-booking, so the guard lives here.
func (s *ReservationService) Transition(ctx context.Context, id int64, to domain.ReservationStatus) (domain.Reservation, error) {
	if !to.Valid() {
		return domain.Reservation{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, to)
	}
	res, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !res.Status.CanTransition(to) {
		return domain.Reservation{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, res.Status, to)
	}

	if to == domain.StatusConfirmed {
		overlap, err := s.reservations.HasConfirmedOverlap(ctx, res.RoomID, res.Checkin, res.Checkout, res.ID)
		if err != nil {
			return domain.Reservation{}, err
		}
		if overlap {
			return domain.Reservation{}, fmt.Errorf("%w: room %d already confirmed for %s..%s",
				domain.ErrConflict, res.RoomID, res.Checkin, res.Checkout)
		}
	}

	if err := s.reservations.UpdateReservationStatus(ctx, id, res.Status, to); err != nil {
		return domain.Reservation{}, err
	}
	res.Status = to

	if to == domain.StatusCompleted {
		s.notifier.Notify(ctx, domain.NotifCheckout,
			"Check-out",
			fmt.Sprintf("Reserva %s finalizada", res.Code))
	}
	return res, nil
}

// ExpirePending cancels every pending reservation whose checkin date has
// passed, as one batch. Today is computed in the operator's local zone, not
// UTC. Running the sweep twice changes nothing the second time: cancelled
// rows no longer match the pending filter.
func (s *ReservationService) ExpirePending(ctx context.Context) (int64, error) {
	today := domain.Today(s.loc)
	n, err := s.reservations.CancelOverduePending(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("expire pending before %s: %w", today, err)
	}
	if n > 0 {
		observability.ObserveSweep(n)
		log.Info().Int64("cancelled", n).Str("before", today.String()).Msg("expired pending reservations")
		s.notifier.Notify(ctx, domain.NotifSweep,
			"Reservas vencidas",
			fmt.Sprintf("%d reservas pendientes canceladas automáticamente", n))
	}
	return n, nil
}
