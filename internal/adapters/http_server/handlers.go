// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"hotel_gestion/internal/app"
	"hotel_gestion/internal/domain"
)

type Handlers struct {
	Auth          *app.AuthService
	Rooms         *app.RoomService
	Reservations  *app.ReservationService
	Requests      *app.RequestService
	Notifications *app.NotificationService
	Dashboard     *app.DashboardService
	WS            http.HandlerFunc

	validate *validator.Validate
}

func NewHandlers(
	auth *app.AuthService,
	rooms *app.RoomService,
	reservations *app.ReservationService,
	requests *app.RequestService,
	notifications *app.NotificationService,
	dashboard *app.DashboardService,
	ws http.HandlerFunc,
) *Handlers {
	return &Handlers{
		Auth: auth, Rooms: rooms, Reservations: reservations,
		Requests: requests, Notifications: notifications, Dashboard: dashboard,
		WS:       ws,
		validate: validator.New(),
	}
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	withTimeout := timeoutFor(15 * time.Second)

	// Staff login sits outside session auth but behind the per-IP limiter.
	s.mux.Group(func(r chi.Router) {
		r.Use(withTimeout)
		r.With(LoginRateLimit()).Post("/v1/auth/login", h.login)
	})

	// Guest-facing routes: QR check-in opens a room-scoped session.
	s.mux.Group(func(r chi.Router) {
		r.Use(withTimeout)
		r.Post("/v1/public/checkin", h.guestCheckin)
		r.Get("/v1/public/session", h.guestSession)
		r.Get("/v1/public/service-types", h.listServiceTypes)
		r.Post("/v1/public/requests", h.createGuestRequest)
	})

	// Staff routes.
	s.mux.Group(func(r chi.Router) {
		r.Use(withTimeout)
		r.Use(RequireStaff(h.Auth))

		r.Post("/v1/auth/logout", h.logout)
		r.Get("/v1/auth/me", h.me)

		r.Get("/v1/rooms", h.listRooms)
		r.Patch("/v1/rooms/{id}/status", h.updateRoomStatus)

		r.Get("/v1/reservations", h.listReservations)
		r.Post("/v1/reservations", h.createReservation)
		r.Patch("/v1/reservations/{id}/status", h.transitionReservation)

		r.Get("/v1/requests", h.listRequests)
		r.Post("/v1/requests/{id}/complete", h.completeRequest)
		r.Get("/v1/service-types", h.listServiceTypes)

		r.Get("/v1/notifications", h.listNotifications)
		r.Post("/v1/notifications/{id}/read", h.markNotificationRead)
		r.Post("/v1/notifications/read-all", h.markAllNotificationsRead)

		r.Get("/v1/dashboard/stats", h.dashboardStats)
		r.Get("/v1/dashboard/occupancy", h.dashboardOccupancy)
		r.Post("/v1/dashboard/expire-pending", h.expirePending)
	})

	// The websocket upgrade hijacks the connection, so no timeout wrapper.
	s.mux.With(RequireStaff(h.Auth)).Get("/v1/ws", func(w http.ResponseWriter, r *http.Request) {
		h.WS(w, r)
	})
}

// ---- helpers ----

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeDomainError maps domain sentinels onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials or session")
	case errors.Is(err, domain.ErrInvalidDateRange):
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// decodeValid decodes the body into dst and runs struct validation.
func (h *Handlers) decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCacheable emits v with an ETag, short-circuiting to 304 when the
// client already holds the same version.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write cacheable body")
	}
}

// ---- auth ----

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := h.decodeValid(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "username and password are required")
		return
	}
	sess, err := h.Auth.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"token": sess.Token,
		"name":  sess.FullName,
		"role":  sess.Role,
	})
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	if err := h.Auth.Logout(r.Context(), sess.Token); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "no session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"username": sess.Username,
		"name":     sess.FullName,
		"role":     sess.Role,
	})
}

// ---- guest flow ----

type checkinRequest struct {
	QRCode string `json:"qr_code" validate:"required"`
}

func (h *Handlers) guestCheckin(w http.ResponseWriter, r *http.Request) {
	var in checkinRequest
	if err := h.decodeValid(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "qr_code is required")
		return
	}
	gs, err := h.Auth.GuestCheckin(r.Context(), in.QRCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func guestToken(r *http.Request) string {
	return r.Header.Get("X-Guest-Token")
}

func (h *Handlers) guestSession(w http.ResponseWriter, r *http.Request) {
	gs, err := h.Auth.GuestSession(r.Context(), guestToken(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

type guestRequestRequest struct {
	ServiceTypeID int64  `json:"service_type_id" validate:"required,gt=0"`
	Notes         string `json:"notes" validate:"max=500"`
}

func (h *Handlers) createGuestRequest(w http.ResponseWriter, r *http.Request) {
	gs, err := h.Auth.GuestSession(r.Context(), guestToken(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var in guestRequestRequest
	if err := h.decodeValid(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "service_type_id is required")
		return
	}
	sr, err := h.Requests.CreateForRoom(r.Context(), gs.RoomID, in.ServiceTypeID, in.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sr)
}

// ---- rooms ----

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Rooms.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

type roomStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available occupied cleaning maintenance"`
}

func (h *Handlers) updateRoomStatus(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var in roomStatusRequest
	if err := h.decodeValid(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "status must be one of available, occupied, cleaning, maintenance")
		return
	}
	if err := h.Rooms.UpdateStatus(r.Context(), id, domain.RoomStatus(in.Status)); err != nil {
		writeDomainError(w, err)
		return
	}
	h.Dashboard.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// ---- reservations ----

func (h *Handlers) listReservations(w http.ResponseWriter, r *http.Request) {
	var q domain.ReservationsQuery
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.ReservationStatus(s)
		if !st.Valid() {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", "unknown status "+s)
			return
		}
		q.Status = &st
	}
	if s := r.URL.Query().Get("room_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", "room_id must be a number")
			return
		}
		q.RoomID = &id
	}
	for name, dst := range map[string]**domain.Date{"from": &q.From, "to": &q.To} {
		if s := r.URL.Query().Get(name); s != "" {
			d, err := domain.ParseDate(s)
			if err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid Request", name+" must be a YYYY-MM-DD date")
				return
			}
			*dst = &d
		}
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l <= 0 || l > 500 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 500")
			return
		}
		q.Limit = l
	}

	out, err := h.Reservations.List(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type createReservationRequest struct {
	RoomID    int64  `json:"room_id" validate:"required,gt=0"`
	GuestName string `json:"guest_name" validate:"required,min=2,max=120"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"max=40"`
	Document  string `json:"document" validate:"max=40"`
	Checkin   string `json:"checkin" validate:"required"`
	Checkout  string `json:"checkout" validate:"required"`
	Guests    int    `json:"guests" validate:"required,gt=0"`
}

func (h *Handlers) createReservation(w http.ResponseWriter, r *http.Request) {
	var in createReservationRequest
	if err := h.decodeValid(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	checkin, err := domain.ParseDate(in.Checkin)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "checkin must be a YYYY-MM-DD date")
		return
	}
	checkout, err := domain.ParseDate(in.Checkout)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "checkout must be a YYYY-MM-DD date")
		return
	}

	res, err := h.Reservations.Create(r.Context(), app.CreateReservationInput{
		RoomID:    in.RoomID,
		GuestName: in.GuestName,
		Email:     in.Email,
		Phone:     in.Phone,
		Document:  in.Document,
		Checkin:   checkin,
		Checkout:  checkout,
		Guests:    in.Guests,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.Dashboard.Invalidate(r.Context(), res.Checkin, res.Checkout)
	writeJSON(w, http.StatusCreated, res)
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

func (h *Handlers) transitionReservation(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var in transitionRequest
	if err := h.decodeValid(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "status must be a reservation status")
		return
	}
	res, err := h.Reservations.Transition(r.Context(), id, domain.ReservationStatus(in.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.Dashboard.Invalidate(r.Context(), res.Checkin, res.Checkout)
	w.WriteHeader(http.StatusNoContent)
}

// ---- service requests ----

func (h *Handlers) listRequests(w http.ResponseWriter, r *http.Request) {
	onlyPending := r.URL.Query().Get("pending") == "true"
	out, err := h.Requests.List(r.Context(), onlyPending)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) completeRequest(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Requests.Complete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	h.Dashboard.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listServiceTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Requests.ServiceTypes(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

// ---- notifications ----

func (h *Handlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	onlyUnread := r.URL.Query().Get("unread") == "true"
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be a non-negative integer")
			return
		}
		limit = l
	}
	out, err := h.Notifications.List(r.Context(), onlyUnread, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Notifications.MarkRead(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notifications.MarkAllRead(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// ---- dashboard ----

func (h *Handlers) dashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Dashboard.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeCacheable(w, r, stats)
}

func (h *Handlers) dashboardOccupancy(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", "year must be a number")
			return
		}
		year = y
	}
	if s := r.URL.Query().Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", "month must be a number")
			return
		}
		month = m
	}
	grid, err := h.Dashboard.Occupancy(r.Context(), year, time.Month(month))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeCacheable(w, r, grid)
}

func (h *Handlers) expirePending(w http.ResponseWriter, r *http.Request) {
	n, err := h.Reservations.ExpirePending(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if n > 0 {
		h.Dashboard.Invalidate(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cancelled": n})
}
