package redisad

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"hotel_gestion/internal/app"
)

// Sessions stores staff and guest sessions in Redis, keyed by opaque token.
// TTLs are enforced server-side: a staff session slides on every lookup
// through the auth service, a guest session simply expires.
type Sessions struct{ c *redis.Client }

func NewSessions(c *redis.Client) *Sessions { return &Sessions{c: c} }

func staffKey(token string) string { return "sess:" + token }
func guestKey(token string) string { return "guest:" + token }

func (s *Sessions) SaveStaff(ctx context.Context, sess app.Session, ttl time.Duration) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.c.Set(ctx, staffKey(sess.Token), b, ttl).Err()
}

func (s *Sessions) GetStaff(ctx context.Context, token string) (app.Session, bool, error) {
	b, err := s.c.Get(ctx, staffKey(token)).Bytes()
	if err == redis.Nil {
		return app.Session{}, false, nil
	}
	if err != nil {
		return app.Session{}, false, err
	}
	var sess app.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return app.Session{}, false, err
	}
	return sess, true, nil
}

func (s *Sessions) DeleteStaff(ctx context.Context, token string) error {
	return s.c.Del(ctx, staffKey(token)).Err()
}

func (s *Sessions) SaveGuest(ctx context.Context, sess app.GuestSession, ttl time.Duration) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.c.Set(ctx, guestKey(sess.Token), b, ttl).Err()
}

func (s *Sessions) GetGuest(ctx context.Context, token string) (app.GuestSession, bool, error) {
	b, err := s.c.Get(ctx, guestKey(token)).Bytes()
	if err == redis.Nil {
		return app.GuestSession{}, false, nil
	}
	if err != nil {
		return app.GuestSession{}, false, err
	}
	var sess app.GuestSession
	if err := json.Unmarshal(b, &sess); err != nil {
		return app.GuestSession{}, false, err
	}
	return sess, true, nil
}
