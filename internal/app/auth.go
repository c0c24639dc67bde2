package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hotel_gestion/internal/adapters/observability"
	"hotel_gestion/internal/domain"
)

// Session is an authenticated staff session, stored server-side keyed by
// its opaque token.
type Session struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// GuestSession is the "active room" record backing the guest-facing flow:
// scanning the in-room QR opens a session scoped to that room, which gates
// service requests. It expires with the session TTL.
type GuestSession struct {
	Token      string `json:"token"`
	RoomID     int64  `json:"room_id"`
	RoomNumber string `json:"room_number"`
	RoomType   string `json:"room_type"`
	MaxGuests  int    `json:"max_guests"`
}

type SessionStore interface {
	SaveStaff(ctx context.Context, s Session, ttl time.Duration) error
	GetStaff(ctx context.Context, token string) (Session, bool, error)
	DeleteStaff(ctx context.Context, token string) error

	SaveGuest(ctx context.Context, s GuestSession, ttl time.Duration) error
	GetGuest(ctx context.Context, token string) (GuestSession, bool, error)
}

type AuthService struct {
	users    domain.UserRepository
	rooms    domain.RoomRepository
	sessions SessionStore
	staffTTL time.Duration
	guestTTL time.Duration
}

func NewAuthService(users domain.UserRepository, rooms domain.RoomRepository, sessions SessionStore, staffTTL, guestTTL time.Duration) *AuthService {
	return &AuthService{users: users, rooms: rooms, sessions: sessions, staffTTL: staffTTL, guestTTL: guestTTL}
}

// Login checks credentials and issues a session token. Unknown users and
// bad passwords both come back as ErrUnauthorized so the response doesn't
// leak which half failed.
func (s *AuthService) Login(ctx context.Context, username, password string) (Session, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		observability.ObserveLoginFailure()
		return Session{}, domain.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		observability.ObserveLoginFailure()
		return Session{}, domain.ErrUnauthorized
	}

	sess := Session{
		Token:    uuid.NewString(),
		UserID:   u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
	}
	if err := s.sessions.SaveStaff(ctx, sess, s.staffTTL); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Me resolves a token to its session, refreshing the TTL so active sessions
// stay alive.
func (s *AuthService) Me(ctx context.Context, token string) (Session, error) {
	sess, ok, err := s.sessions.GetStaff(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, domain.ErrUnauthorized
	}
	_ = s.sessions.SaveStaff(ctx, sess, s.staffTTL)
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteStaff(ctx, token)
}

// GuestCheckin resolves a scanned QR code to its room and opens a guest
// session for it. Unknown codes surface as ErrNotFound.
func (s *AuthService) GuestCheckin(ctx context.Context, qrCode string) (GuestSession, error) {
	room, err := s.rooms.GetRoomByQR(ctx, qrCode)
	if err != nil {
		return GuestSession{}, err
	}
	gs := GuestSession{
		Token:      uuid.NewString(),
		RoomID:     room.ID,
		RoomNumber: room.Number,
		RoomType:   room.Type,
		MaxGuests:  room.MaxGuests,
	}
	if err := s.sessions.SaveGuest(ctx, gs, s.guestTTL); err != nil {
		return GuestSession{}, fmt.Errorf("save guest session: %w", err)
	}
	return gs, nil
}

// GuestSession resolves a guest token, for gating public service requests.
func (s *AuthService) GuestSession(ctx context.Context, token string) (GuestSession, error) {
	gs, ok, err := s.sessions.GetGuest(ctx, token)
	if err != nil {
		return GuestSession{}, err
	}
	if !ok {
		return GuestSession{}, domain.ErrUnauthorized
	}
	return gs, nil
}

// HashPassword is used by seeding and user administration.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
