package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"hotel_gestion/internal/app"
	"hotel_gestion/internal/domain"
)

// fakeCache round-trips through JSON like the real Redis cache does, so
// tests catch anything that doesn't survive serialization.
func jsonMarshal(v any) ([]byte, error)      { return json.Marshal(v) }
func jsonUnmarshal(b []byte, dst any) error  { return json.Unmarshal(b, dst) }

// ---- in-memory fakes for the domain ports ----

type fakeReservationRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]domain.Reservation

	overlap    bool // HasConfirmedOverlap answer
	failCancel error
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{items: map[int64]domain.Reservation{}}
}

func (f *fakeReservationRepo) CreateReservation(ctx context.Context, r *domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	r.CreatedAt = time.Now()
	f.items[r.ID] = *r
	return nil
}

func (f *fakeReservationRepo) GetReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeReservationRepo) ListReservations(ctx context.Context, q domain.ReservationsQuery) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Reservation
	for _, r := range f.items {
		if q.Status != nil && r.Status != *q.Status {
			continue
		}
		if q.RoomID != nil && r.RoomID != *q.RoomID {
			continue
		}
		if q.From != nil && q.To != nil {
			// intersect [From, To)
			if !r.Checkin.Before(*q.To) || !q.From.Before(r.Checkout) {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReservationRepo) UpdateReservationStatus(ctx context.Context, id int64, from, to domain.ReservationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok || r.Status != from {
		return domain.ErrNotFound
	}
	r.Status = to
	f.items[id] = r
	return nil
}

func (f *fakeReservationRepo) CancelOverduePending(ctx context.Context, before domain.Date) (int64, error) {
	if f.failCancel != nil {
		return 0, f.failCancel
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, r := range f.items {
		if r.Status == domain.StatusPending && r.Checkin.Before(before) {
			r.Status = domain.StatusCancelled
			f.items[id] = r
			n++
		}
	}
	return n, nil
}

func (f *fakeReservationRepo) HasConfirmedOverlap(ctx context.Context, roomID int64, checkin, checkout domain.Date, excludeID int64) (bool, error) {
	return f.overlap, nil
}

type fakeRoomRepo struct {
	rooms map[int64]domain.Room
}

func newFakeRoomRepo(rooms ...domain.Room) *fakeRoomRepo {
	m := map[int64]domain.Room{}
	for _, r := range rooms {
		m[r.ID] = r
	}
	return &fakeRoomRepo{rooms: m}
}

func (f *fakeRoomRepo) ListRooms(ctx context.Context) ([]domain.Room, error) {
	out := make([]domain.Room, 0, len(f.rooms))
	for _, r := range f.rooms {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRoomRepo) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeRoomRepo) GetRoomByQR(ctx context.Context, code string) (domain.Room, error) {
	for _, r := range f.rooms {
		if r.QRCode == code {
			return r, nil
		}
	}
	return domain.Room{}, domain.ErrNotFound
}

func (f *fakeRoomRepo) UpdateRoomStatus(ctx context.Context, id int64, status domain.RoomStatus) error {
	r, ok := f.rooms[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = status
	f.rooms[id] = r
	return nil
}

type fakeGuestRepo struct {
	nextID int64
	guests map[int64]domain.Guest
}

func newFakeGuestRepo() *fakeGuestRepo { return &fakeGuestRepo{guests: map[int64]domain.Guest{}} }

func (f *fakeGuestRepo) GetGuest(ctx context.Context, id int64) (domain.Guest, error) {
	g, ok := f.guests[id]
	if !ok {
		return domain.Guest{}, domain.ErrNotFound
	}
	return g, nil
}

func (f *fakeGuestRepo) ListGuestsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Guest, error) {
	out := map[int64]domain.Guest{}
	for _, id := range ids {
		if g, ok := f.guests[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

func (f *fakeGuestRepo) UpsertGuest(ctx context.Context, g *domain.Guest) error {
	if g.ID == 0 {
		f.nextID++
		g.ID = f.nextID
	}
	f.guests[g.ID] = *g
	return nil
}

type fakeNotifRepo struct {
	mu     sync.Mutex
	nextID int64
	items  []domain.Notification
	fail   error
}

func (f *fakeNotifRepo) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	n.ID = f.nextID
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeNotifRepo) ListNotifications(ctx context.Context, onlyUnread bool, limit int) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, n := range f.items {
		if onlyUnread && n.Read {
			continue
		}
		out = append(out, n)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNotifRepo) MarkNotificationRead(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeNotifRepo) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.items {
		if !f.items[i].Read {
			f.items[i].Read = true
			n++
		}
	}
	return n, nil
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (f *fakeBroadcaster) Broadcast(n domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, jsonUnmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

type fakeStatsRepo struct {
	calls int
	fail  error
}

func (f *fakeStatsRepo) CountRoomsByStatus(ctx context.Context) (map[domain.RoomStatus]int, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	return map[domain.RoomStatus]int{domain.RoomAvailable: 8, domain.RoomOccupied: 2}, nil
}

func (f *fakeStatsRepo) CountReservationsByStatus(ctx context.Context) (map[domain.ReservationStatus]int, error) {
	return map[domain.ReservationStatus]int{domain.StatusPending: 3, domain.StatusConfirmed: 5}, nil
}

func (f *fakeStatsRepo) CountArrivals(ctx context.Context, day domain.Date) (int, error)   { return 2, nil }
func (f *fakeStatsRepo) CountDepartures(ctx context.Context, day domain.Date) (int, error) { return 1, nil }
func (f *fakeStatsRepo) CountPendingRequests(ctx context.Context) (int, error)             { return 4, nil }

type fakeSessionStore struct {
	mu     sync.Mutex
	staff  map[string]app.Session
	guests map[string]app.GuestSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{staff: map[string]app.Session{}, guests: map[string]app.GuestSession{}}
}

func (f *fakeSessionStore) SaveStaff(ctx context.Context, s app.Session, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staff[s.Token] = s
	return nil
}

func (f *fakeSessionStore) GetStaff(ctx context.Context, token string) (app.Session, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.staff[token]
	return s, ok, nil
}

func (f *fakeSessionStore) DeleteStaff(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.staff, token)
	return nil
}

func (f *fakeSessionStore) SaveGuest(ctx context.Context, s app.GuestSession, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guests[s.Token] = s
	return nil
}

func (f *fakeSessionStore) GetGuest(ctx context.Context, token string) (app.GuestSession, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.guests[token]
	return s, ok, nil
}

type fakeRequestRepo struct {
	nextID int64
	items  map[int64]domain.ServiceRequest
	types  map[int64]domain.ServiceType
}

func newFakeRequestRepo(types ...domain.ServiceType) *fakeRequestRepo {
	m := map[int64]domain.ServiceType{}
	for _, t := range types {
		m[t.ID] = t
	}
	return &fakeRequestRepo{items: map[int64]domain.ServiceRequest{}, types: m}
}

func (f *fakeRequestRepo) CreateRequest(ctx context.Context, sr *domain.ServiceRequest) error {
	f.nextID++
	sr.ID = f.nextID
	sr.CreatedAt = time.Now()
	f.items[sr.ID] = *sr
	return nil
}

func (f *fakeRequestRepo) ListRequests(ctx context.Context, onlyPending bool) ([]domain.ServiceRequest, error) {
	var out []domain.ServiceRequest
	for _, sr := range f.items {
		if onlyPending && sr.Status != domain.RequestPending {
			continue
		}
		out = append(out, sr)
	}
	return out, nil
}

func (f *fakeRequestRepo) CompleteRequest(ctx context.Context, id int64) error {
	sr, ok := f.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	sr.Status = domain.RequestCompleted
	sr.CompletedAt = &now
	f.items[id] = sr
	return nil
}

func (f *fakeRequestRepo) ListServiceTypes(ctx context.Context) ([]domain.ServiceType, error) {
	var out []domain.ServiceType
	for _, t := range f.types {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRequestRepo) GetServiceType(ctx context.Context, id int64) (domain.ServiceType, error) {
	t, ok := f.types[id]
	if !ok {
		return domain.ServiceType{}, domain.ErrNotFound
	}
	return t, nil
}

type fakeUserRepo struct {
	users map[string]domain.User
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	u, ok := f.users[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}
