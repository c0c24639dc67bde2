package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"hotel_gestion/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func scanDate(s string) (domain.Date, error) {
	return domain.ParseDate(s)
}

// ---- reservations ----

func (r *Repo) CreateReservation(ctx context.Context, res *domain.Reservation) error {
	out, err := r.db.ExecContext(ctx, insertReservationSQL,
		res.Code, res.RoomID, res.GuestID,
		res.Checkin.String(), res.Checkout.String(),
		res.Guests, string(res.Status),
	)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = id
	return nil
}

func (r *Repo) scanReservation(row interface{ Scan(...any) error }) (domain.Reservation, error) {
	var res domain.Reservation
	var checkin, checkout, status string
	if err := row.Scan(
		&res.ID, &res.Code, &res.RoomID, &res.GuestID,
		&checkin, &checkout,
		&res.Guests, &status, &res.CreatedAt,
	); err != nil {
		return domain.Reservation{}, err
	}
	var err error
	if res.Checkin, err = scanDate(checkin); err != nil {
		return domain.Reservation{}, err
	}
	if res.Checkout, err = scanDate(checkout); err != nil {
		return domain.Reservation{}, err
	}
	res.Status = domain.ReservationStatus(status)
	return res, nil
}

func (r *Repo) GetReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	res, err := r.scanReservation(r.db.QueryRowContext(ctx, getReservationSQL, id))
	if err == sql.ErrNoRows {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return res, err
}

func (r *Repo) ListReservations(ctx context.Context, q domain.ReservationsQuery) ([]domain.Reservation, error) {
	query := "SELECT " + reservationColumns + " FROM reservations"
	var where []string
	var args []any
	if q.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*q.Status))
	}
	if q.RoomID != nil {
		where = append(where, "room_id = ?")
		args = append(args, *q.RoomID)
	}
	if q.From != nil && q.To != nil {
		// intersects [From, To)
		where = append(where, "checkin_date < ? AND checkout_date > ?")
		args = append(args, q.To.String(), q.From.String())
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY checkin_date, id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := r.scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateReservationStatus(ctx context.Context, id int64, from, to domain.ReservationStatus) error {
	out, err := r.db.ExecContext(ctx, updateReservationStatusSQL, string(to), id, string(from))
	if err != nil {
		return err
	}
	n, err := out.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// either the row is gone or its status moved under us
		return fmt.Errorf("reservation %d in status %s: %w", id, from, domain.ErrNotFound)
	}
	return nil
}

func (r *Repo) CancelOverduePending(ctx context.Context, before domain.Date) (int64, error) {
	out, err := r.db.ExecContext(ctx, cancelOverduePendingSQL, before.String())
	if err != nil {
		return 0, err
	}
	return out.RowsAffected()
}

func (r *Repo) HasConfirmedOverlap(ctx context.Context, roomID int64, checkin, checkout domain.Date, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, confirmedOverlapSQL,
		roomID, excludeID, checkout.String(), checkin.String(),
	).Scan(&exists)
	return exists, err
}

// ---- rooms ----

func scanRoom(row interface{ Scan(...any) error }) (domain.Room, error) {
	var room domain.Room
	var status string
	var qr sql.NullString
	if err := row.Scan(&room.ID, &room.Number, &room.Type, &status, &room.MaxGuests, &qr); err != nil {
		return domain.Room{}, err
	}
	room.Status = domain.RoomStatus(status)
	room.QRCode = qr.String
	return room, nil
}

func (r *Repo) ListRooms(ctx context.Context) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, listRoomsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func (r *Repo) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	room, err := scanRoom(r.db.QueryRowContext(ctx, getRoomSQL, id))
	if err == sql.ErrNoRows {
		return domain.Room{}, domain.ErrNotFound
	}
	return room, err
}

func (r *Repo) GetRoomByQR(ctx context.Context, code string) (domain.Room, error) {
	room, err := scanRoom(r.db.QueryRowContext(ctx, getRoomByQRSQL, code))
	if err == sql.ErrNoRows {
		return domain.Room{}, domain.ErrNotFound
	}
	return room, err
}

func (r *Repo) UpdateRoomStatus(ctx context.Context, id int64, status domain.RoomStatus) error {
	out, err := r.db.ExecContext(ctx, updateRoomStatusSQL, string(status), id)
	if err != nil {
		return err
	}
	n, err := out.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ---- guests ----

func (r *Repo) GetGuest(ctx context.Context, id int64) (domain.Guest, error) {
	var g domain.Guest
	var email, phone, document sql.NullString
	err := r.db.QueryRowContext(ctx, getGuestSQL, id).Scan(&g.ID, &g.FullName, &email, &phone, &document)
	if err == sql.ErrNoRows {
		return domain.Guest{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Guest{}, err
	}
	g.Email, g.Phone, g.Document = email.String, phone.String, document.String
	return g, nil
}

func (r *Repo) ListGuestsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Guest, error) {
	out := make(map[int64]domain.Guest, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, full_name, email, phone, document FROM guests WHERE id IN ("+placeholders+")",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var g domain.Guest
		var email, phone, document sql.NullString
		if err := rows.Scan(&g.ID, &g.FullName, &email, &phone, &document); err != nil {
			return nil, err
		}
		g.Email, g.Phone, g.Document = email.String, phone.String, document.String
		out[g.ID] = g
	}
	return out, rows.Err()
}

// UpsertGuest matches returning guests by document when one is provided, so
// repeat bookings don't pile up duplicate guest rows.
func (r *Repo) UpsertGuest(ctx context.Context, g *domain.Guest) error {
	if g.ID == 0 && g.Document != "" {
		var id int64
		err := r.db.QueryRowContext(ctx, findGuestByDocumentSQL, g.Document).Scan(&id)
		switch err {
		case nil:
			g.ID = id
		case sql.ErrNoRows:
			// fall through to insert
		default:
			return err
		}
	}

	if g.ID == 0 {
		out, err := r.db.ExecContext(ctx, insertGuestSQL, g.FullName, g.Email, g.Phone, g.Document)
		if err != nil {
			return err
		}
		id, err := out.LastInsertId()
		if err != nil {
			return err
		}
		g.ID = id
		return nil
	}

	_, err := r.db.ExecContext(ctx, updateGuestSQL, g.FullName, g.Email, g.Phone, g.ID)
	return err
}

// ---- service requests ----

func (r *Repo) CreateRequest(ctx context.Context, sr *domain.ServiceRequest) error {
	out, err := r.db.ExecContext(ctx, insertRequestSQL, sr.RoomID, sr.ServiceTypeID, sr.Notes)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	sr.ID = id
	sr.Status = domain.RequestPending
	return nil
}

func (r *Repo) ListRequests(ctx context.Context, onlyPending bool) ([]domain.ServiceRequest, error) {
	query := listRequestsSQL
	if onlyPending {
		query += " WHERE sr.status = 'pending'"
	}
	query += " ORDER BY sr.created_at DESC, sr.id DESC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ServiceRequest
	for rows.Next() {
		var sr domain.ServiceRequest
		var status string
		var notes sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&sr.ID, &sr.RoomID, &sr.RoomNumber, &sr.ServiceTypeID, &sr.ServiceName,
			&status, &notes, &sr.CreatedAt, &completedAt); err != nil {
			return nil, err
		}
		sr.Status = domain.RequestStatus(status)
		sr.Notes = notes.String
		if completedAt.Valid {
			t := completedAt.Time
			sr.CompletedAt = &t
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (r *Repo) CompleteRequest(ctx context.Context, id int64) error {
	out, err := r.db.ExecContext(ctx, completeRequestSQL, id)
	if err != nil {
		return err
	}
	n, err := out.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) ListServiceTypes(ctx context.Context) ([]domain.ServiceType, error) {
	rows, err := r.db.QueryContext(ctx, listServiceTypesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ServiceType
	for rows.Next() {
		var st domain.ServiceType
		var icon string
		if err := rows.Scan(&st.ID, &st.Name, &icon, &st.HasCost); err != nil {
			return nil, err
		}
		st.Icon = domain.ServiceIcon(icon)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *Repo) GetServiceType(ctx context.Context, id int64) (domain.ServiceType, error) {
	var st domain.ServiceType
	var icon string
	err := r.db.QueryRowContext(ctx, getServiceTypeSQL, id).Scan(&st.ID, &st.Name, &icon, &st.HasCost)
	if err == sql.ErrNoRows {
		return domain.ServiceType{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ServiceType{}, err
	}
	st.Icon = domain.ServiceIcon(icon)
	return st, nil
}

// ---- notifications ----

func (r *Repo) CreateNotification(ctx context.Context, n *domain.Notification) error {
	out, err := r.db.ExecContext(ctx, insertNotificationSQL, string(n.Type), n.Title, n.Message, n.CreatedAt)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = id
	return nil
}

func (r *Repo) ListNotifications(ctx context.Context, onlyUnread bool, limit int) ([]domain.Notification, error) {
	query := "SELECT id, type, title, message, read_flag, created_at FROM notifications"
	if onlyUnread {
		query += " WHERE read_flag = 0"
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var typ string
		if err := rows.Scan(&n.ID, &typ, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = domain.NotificationType(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repo) MarkNotificationRead(ctx context.Context, id int64) error {
	out, err := r.db.ExecContext(ctx, markNotificationReadSQL, id)
	if err != nil {
		return err
	}
	n, err := out.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	out, err := r.db.ExecContext(ctx, markAllNotificationsReadSQL)
	if err != nil {
		return 0, err
	}
	return out.RowsAffected()
}

// ---- users ----

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *Repo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, getUserByUsernameSQL, username))
	if err == sql.ErrNoRows {
		return domain.User{}, domain.ErrNotFound
	}
	return u, err
}

func (r *Repo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, getUserSQL, id))
	if err == sql.ErrNoRows {
		return domain.User{}, domain.ErrNotFound
	}
	return u, err
}

// ---- dashboard counters ----

func (r *Repo) CountRoomsByStatus(ctx context.Context) (map[domain.RoomStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, countRoomsByStatusSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[domain.RoomStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.RoomStatus(status)] = n
	}
	return out, rows.Err()
}

func (r *Repo) CountReservationsByStatus(ctx context.Context) (map[domain.ReservationStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, countReservationsByStatusSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[domain.ReservationStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.ReservationStatus(status)] = n
	}
	return out, rows.Err()
}

func (r *Repo) CountArrivals(ctx context.Context, day domain.Date) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countArrivalsSQL, day.String()).Scan(&n)
	return n, err
}

func (r *Repo) CountDepartures(ctx context.Context, day domain.Date) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countDeparturesSQL, day.String()).Scan(&n)
	return n, err
}

func (r *Repo) CountPendingRequests(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countPendingRequestsSQL).Scan(&n)
	return n, err
}
