package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"hotel_gestion/internal/domain"
)

// ChannelState is the explicit connection state machine of the consumer:
// disconnected -> connecting -> connected, with backoff-wait between failed
// attempts. Transitions are driven by connect success, connect failure, and
// Stop; every timer is cancellable so teardown is deterministic.
type ChannelState int

const (
	StateDisconnected ChannelState = iota
	StateConnecting
	StateConnected
	StateBackoffWait
)

func (s ChannelState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackoffWait:
		return "backoff-wait"
	default:
		return "disconnected"
	}
}

// NotificationAPI is the REST surface the channel uses for read-state
// writes. Local read flags change only after these calls succeed, so local
// and remote state cannot diverge on failure.
type NotificationAPI interface {
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) error
}

const (
	defaultBaseBackoff = 500 * time.Millisecond
	defaultMaxBackoff  = 8 * time.Second
	defaultHeartbeat   = 25 * time.Second
	maxConnectAttempts = 5
)

// Channel is a reconnecting consumer of the staff notification stream. It
// maintains a local notification list fed by the snapshot and incremental
// events, de-duplicated by id.
type Channel struct {
	url string
	api NotificationAPI

	baseBackoff time.Duration
	maxBackoff  time.Duration
	heartbeat   time.Duration
	dial        func(ctx context.Context, url string) (*websocket.Conn, error)

	mu            sync.Mutex
	state         ChannelState
	notifications []domain.Notification
	cancel        context.CancelFunc
	done          chan struct{}
}

// ChannelOption tweaks timing, mainly for tests.
type ChannelOption func(*Channel)

func WithBackoff(base, max time.Duration) ChannelOption {
	return func(c *Channel) { c.baseBackoff, c.maxBackoff = base, max }
}

func WithHeartbeat(d time.Duration) ChannelOption {
	return func(c *Channel) { c.heartbeat = d }
}

func NewChannel(url string, api NotificationAPI, opts ...ChannelOption) *Channel {
	c := &Channel{
		url:         url,
		api:         api,
		baseBackoff: defaultBaseBackoff,
		maxBackoff:  defaultMaxBackoff,
		heartbeat:   defaultHeartbeat,
		state:       StateDisconnected,
	}
	c.dial = func(ctx context.Context, url string) (*websocket.Conn, error) {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return conn, err
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Connect starts the connection loop. After maxConnectAttempts consecutive
// failures the channel gives up and stays disconnected until Connect is
// called again.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return errors.New("channel already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go func() {
		c.run(runCtx)
		cancel()
		// mark the channel restartable; a give-up must not require Stop
		// before the next Connect
		c.mu.Lock()
		if c.done == done {
			c.cancel = nil
		}
		c.mu.Unlock()
		close(done)
	}()
	return nil
}

// Stop tears the channel down and waits for the loop to exit.
func (c *Channel) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (c *Channel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) setState(s ChannelState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Notifications returns a copy of the local list, newest first.
func (c *Channel) Notifications() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

func (c *Channel) run(ctx context.Context) {
	defer c.setState(StateDisconnected)

	attempts := 0
	for {
		if ctx.Err() != nil {
			return
		}
		c.setState(StateConnecting)
		conn, err := c.dial(ctx, c.url)
		if err != nil {
			attempts++
			if attempts >= maxConnectAttempts {
				log.Warn().Int("attempts", attempts).Msg("notification channel gave up")
				return
			}
			c.setState(StateBackoffWait)
			if !sleepCtx(ctx, c.backoffDelay(attempts)) {
				return
			}
			continue
		}

		attempts = 0
		c.setState(StateConnected)
		c.serve(ctx, conn)
		_ = conn.Close()
		// connection lost: next loop iteration reconnects, counting
		// failures from one again
	}
}

// backoffDelay doubles the base per failed attempt, capped.
func (c *Channel) backoffDelay(attempt int) time.Duration {
	d := c.baseBackoff << (attempt - 1)
	if d > c.maxBackoff || d <= 0 {
		d = c.maxBackoff
	}
	return d
}

// serve reads frames until the connection breaks or ctx is cancelled, and
// keeps the heartbeat going.
func (c *Channel) serve(parent context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	go func() {
		ticker := time.NewTicker(c.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-ticker.C:
				frame, _ := json.Marshal(Message{Type: TypePing})
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		c.handle(m)
	}
}

func (c *Channel) handle(m Message) {
	switch m.Type {
	case TypeSnapshot:
		c.mu.Lock()
		c.notifications = append([]domain.Notification(nil), m.Notifications...)
		c.mu.Unlock()
	case TypeNotification:
		if m.Notification == nil {
			return
		}
		c.mu.Lock()
		c.prependLocked(*m.Notification)
		c.mu.Unlock()
	case TypeAuthAck, TypeHeartbeatAck:
		// acknowledgements carry no payload
	case TypeError:
		log.Warn().Str("error", m.Error).Msg("notification channel error frame")
	}
}

// prependLocked adds newest-first, dropping any existing entry with the
// same id first. Reconnect replays deliver duplicates; the list must not.
func (c *Channel) prependLocked(n domain.Notification) {
	for i, existing := range c.notifications {
		if existing.ID == n.ID {
			c.notifications = append(c.notifications[:i], c.notifications[i+1:]...)
			break
		}
	}
	c.notifications = append([]domain.Notification{n}, c.notifications...)
}

// MarkRead flips the read flag remotely, then locally. On failure the local
// entry is untouched.
func (c *Channel) MarkRead(ctx context.Context, id int64) error {
	if err := c.api.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.notifications {
		if c.notifications[i].ID == id {
			c.notifications[i].Read = true
			break
		}
	}
	return nil
}

// MarkAllRead flips every read flag remotely, then locally. No optimistic
// update: a failed call leaves the local list exactly as it was.
func (c *Channel) MarkAllRead(ctx context.Context) error {
	if err := c.api.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.notifications {
		c.notifications[i].Read = true
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
