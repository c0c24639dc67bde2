package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"hotel_gestion/internal/domain"
)

type DashboardService struct {
	stats        domain.StatsRepository
	rooms        domain.RoomRepository
	reservations domain.ReservationRepository
	guests       domain.GuestRepository
	cache        domain.Cache
	cacheTTL     time.Duration
	loc          *time.Location
}

func NewDashboardService(
	stats domain.StatsRepository,
	rooms domain.RoomRepository,
	reservations domain.ReservationRepository,
	guests domain.GuestRepository,
	cache domain.Cache,
	ttl time.Duration,
	loc *time.Location,
) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{
		stats: stats, rooms: rooms, reservations: reservations, guests: guests,
		cache: cache, cacheTTL: ttl, loc: loc,
	}
}

const statsCacheKey = "dashboard:stats"

// Stats aggregates the dashboard counters. The five queries are independent
// so they run as an errgroup fan-out against the same deadline; one failure
// fails the whole aggregate.
func (s *DashboardService) Stats(ctx context.Context) (domain.DashboardStats, error) {
	var out domain.DashboardStats
	if ok, _ := s.cache.Get(ctx, statsCacheKey, &out); ok {
		return out, nil
	}

	today := domain.Today(s.loc)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Rooms, err = s.stats.CountRoomsByStatus(gctx)
		return
	})
	g.Go(func() (err error) {
		out.Reservations, err = s.stats.CountReservationsByStatus(gctx)
		return
	})
	g.Go(func() (err error) {
		out.ArrivalsToday, err = s.stats.CountArrivals(gctx, today)
		return
	})
	g.Go(func() (err error) {
		out.DeparturesToday, err = s.stats.CountDepartures(gctx, today)
		return
	})
	g.Go(func() (err error) {
		out.PendingRequests, err = s.stats.CountPendingRequests(gctx)
		return
	})
	if err := g.Wait(); err != nil {
		return domain.DashboardStats{}, err
	}

	_ = s.cache.Set(ctx, statsCacheKey, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// OccupancyGrid is the JSON shape of the monthly calendar: one row per room,
// one cell per day of the month.
type OccupancyGrid struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Days  int             `json:"days"`
	Rooms []RoomOccupancy `json:"rooms"`
}

type RoomOccupancy struct {
	RoomID     int64         `json:"room_id"`
	RoomNumber string        `json:"room_number"`
	RoomType   string        `json:"room_type"`
	Cells      []domain.Cell `json:"cells"` // index 0 is day 1
}

func occupancyCacheKey(year int, month time.Month) string {
	return fmt.Sprintf("occupancy:%04d-%02d", year, int(month))
}

// Occupancy computes the calendar grid for one month. Only reservations
// intersecting the month are fetched; the tie-break and interval semantics
// live in domain.ComputeOccupancy.
func (s *DashboardService) Occupancy(ctx context.Context, year int, month time.Month) (OccupancyGrid, error) {
	if month < time.January || month > time.December || year < 2000 || year > 2100 {
		return OccupancyGrid{}, fmt.Errorf("%w: month %d/%d out of range", domain.ErrInvalidDateRange, int(month), year)
	}

	key := occupancyCacheKey(year, month)
	var grid OccupancyGrid
	if ok, _ := s.cache.Get(ctx, key, &grid); ok {
		return grid, nil
	}

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return OccupancyGrid{}, err
	}

	first := domain.Date{Year: year, Month: month, Day: 1}
	next := first.AddDays(domain.DaysIn(year, month))
	status := domain.StatusConfirmed
	reservations, err := s.reservations.ListReservations(ctx, domain.ReservationsQuery{
		Status: &status,
		From:   &first,
		To:     &next,
	})
	if err != nil {
		return OccupancyGrid{}, err
	}

	guestIDs := make([]int64, 0, len(reservations))
	for _, r := range reservations {
		guestIDs = append(guestIDs, r.GuestID)
	}
	guests := map[int64]domain.Guest{}
	if len(guestIDs) > 0 {
		if guests, err = s.guests.ListGuestsByIDs(ctx, guestIDs); err != nil {
			return OccupancyGrid{}, err
		}
	}

	cells := domain.ComputeOccupancy(rooms, reservations, guests, year, month)

	days := domain.DaysIn(year, month)
	grid = OccupancyGrid{Year: year, Month: int(month), Days: days}
	for _, room := range rooms {
		row := RoomOccupancy{RoomID: room.ID, RoomNumber: room.Number, RoomType: room.Type,
			Cells: make([]domain.Cell, days)}
		for day := 1; day <= days; day++ {
			row.Cells[day-1] = cells[domain.CellKey{RoomID: room.ID, Day: day}]
		}
		grid.Rooms = append(grid.Rooms, row)
	}

	_ = s.cache.Set(ctx, key, grid, int(s.cacheTTL.Seconds()))
	return grid, nil
}

// Invalidate drops the cached stats and the grids for every month between
// the earliest and latest touched date; a stay can span months that neither
// endpoint lands in. Best effort; a stale entry expires by TTL anyway.
func (s *DashboardService) Invalidate(ctx context.Context, touched ...domain.Date) {
	_ = s.cache.Del(ctx, statsCacheKey)
	if len(touched) == 0 {
		return
	}
	lo, hi := touched[0], touched[0]
	for _, d := range touched[1:] {
		if d.Before(lo) {
			lo = d
		}
		if hi.Before(d) {
			hi = d
		}
	}
	y, m := lo.Year, lo.Month
	for {
		_ = s.cache.Del(ctx, occupancyCacheKey(y, m))
		if y == hi.Year && m == hi.Month {
			return
		}
		if m++; m > time.December {
			m = time.January
			y++
		}
	}
}
