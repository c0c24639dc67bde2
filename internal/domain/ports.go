package domain

import "context"

type RoomRepository interface {
	ListRooms(ctx context.Context) ([]Room, error)
	GetRoom(ctx context.Context, id int64) (Room, error)
	GetRoomByQR(ctx context.Context, code string) (Room, error)
	UpdateRoomStatus(ctx context.Context, id int64, status RoomStatus) error
}

type ReservationRepository interface {
	CreateReservation(ctx context.Context, r *Reservation) error
	GetReservation(ctx context.Context, id int64) (Reservation, error)
	ListReservations(ctx context.Context, q ReservationsQuery) ([]Reservation, error)
	UpdateReservationStatus(ctx context.Context, id int64, from, to ReservationStatus) error

	// CancelOverduePending cancels every pending reservation whose checkin
	// date is before the given day, in one batch. Returns the number of
	// rows transitioned. Idempotent: the pending filter excludes anything
	// already cancelled.
	CancelOverduePending(ctx context.Context, before Date) (int64, error)

	// HasConfirmedOverlap reports whether some other confirmed reservation
	// on the room intersects [checkin, checkout).
	HasConfirmedOverlap(ctx context.Context, roomID int64, checkin, checkout Date, excludeID int64) (bool, error)
}

type GuestRepository interface {
	GetGuest(ctx context.Context, id int64) (Guest, error)
	ListGuestsByIDs(ctx context.Context, ids []int64) (map[int64]Guest, error)
	UpsertGuest(ctx context.Context, g *Guest) error
}

type RequestRepository interface {
	CreateRequest(ctx context.Context, sr *ServiceRequest) error
	ListRequests(ctx context.Context, onlyPending bool) ([]ServiceRequest, error)
	CompleteRequest(ctx context.Context, id int64) error
	ListServiceTypes(ctx context.Context) ([]ServiceType, error)
	GetServiceType(ctx context.Context, id int64) (ServiceType, error)
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, onlyUnread bool, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) (int64, error)
}

type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
}

type StatsRepository interface {
	CountRoomsByStatus(ctx context.Context) (map[RoomStatus]int, error)
	CountReservationsByStatus(ctx context.Context) (map[ReservationStatus]int, error)
	CountArrivals(ctx context.Context, day Date) (int, error)
	CountDepartures(ctx context.Context, day Date) (int, error)
	CountPendingRequests(ctx context.Context) (int, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Broadcaster pushes a notification to every connected staff session. The
// WebSocket hub implements it; services stay transport-agnostic.
type Broadcaster interface {
	Broadcast(n Notification)
}

// Queries & read models

type ReservationsQuery struct {
	Status *ReservationStatus
	RoomID *int64
	// Overlapping restricts to reservations intersecting [From, To).
	From, To *Date
	Limit    int
}

// ReservationView is the staff-facing read model: the reservation plus the
// display data the list and calendar need.
type ReservationView struct {
	Reservation
	RoomNumber string `json:"room_number"`
	GuestName  string `json:"guest_name"`
	// Overdue marks a pending reservation whose checkin has passed; the UI
	// hides manual confirm and shows the auto-cancel notice instead.
	Overdue bool `json:"overdue"`
}

type DashboardStats struct {
	Rooms           map[RoomStatus]int        `json:"rooms"`
	Reservations    map[ReservationStatus]int `json:"reservations"`
	ArrivalsToday   int                       `json:"arrivals_today"`
	DeparturesToday int                       `json:"departures_today"`
	PendingRequests int                       `json:"pending_requests"`
}
