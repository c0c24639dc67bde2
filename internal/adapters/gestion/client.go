// internal/adapters/gestion/client.go
package gestion

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_gestion/internal/domain"
)

// Client talks to the Gestión HTTP API. It carries the staff session token
// and applies client-side rate limiting plus retries on 429 and transient
// 5xx responses.
type Client struct {
	base  string
	hc    *http.Client
	token string
	rl    *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	base = strings.TrimRight(base, "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// SetToken installs the session token used for authenticated calls.
func (c *Client) SetToken(token string) { c.token = token }

var (
	ErrNotFound     = errors.New("gestion: not found")
	ErrUnauthorized = errors.New("gestion: unauthorized")
	ErrConflict     = errors.New("gestion: conflict")
)

// ---- Auth ----

type loginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Login exchanges credentials for a session token and installs it on the
// client.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", body, &out); err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
	if err == nil {
		c.token = ""
	}
	return err
}

// ---- Notifications ----

func (c *Client) ListNotifications(ctx context.Context, onlyUnread bool, limit int) ([]domain.Notification, error) {
	path := fmt.Sprintf("/v1/notifications?limit=%d", limit)
	if onlyUnread {
		path += "&unread=true"
	}
	var out []domain.Notification
	return out, c.do(ctx, http.MethodGet, path, nil, &out)
}

// MarkNotificationRead implements ws.NotificationAPI.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/notifications/%d/read", id), nil, nil)
}

// MarkAllNotificationsRead implements ws.NotificationAPI.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v1/notifications/read-all", nil, nil)
}

// ---- Reservations ----

func (c *Client) ListReservations(ctx context.Context, status string) ([]domain.ReservationView, error) {
	path := "/v1/reservations"
	if status != "" {
		path += "?status=" + status
	}
	var out []domain.ReservationView
	return out, c.do(ctx, http.MethodGet, path, nil, &out)
}

func (c *Client) TransitionReservation(ctx context.Context, id int64, status domain.ReservationStatus) error {
	body := map[string]string{"status": string(status)}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/v1/reservations/%d/status", id), body, nil)
}

// ExpirePending triggers the overdue-pending sweep and returns how many
// reservations it cancelled.
func (c *Client) ExpirePending(ctx context.Context) (int64, error) {
	var out struct {
		Cancelled int64 `json:"cancelled"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/dashboard/expire-pending", nil, &out)
	return out.Cancelled, err
}

// ---- Internals ----

// do performs a request with rate limiting, retries, and JSON decode into
// out. Retries on 429 and transient 5xx, honoring Retry-After when
// provided.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// fresh request per attempt; the body reader is single-use
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hotel-gestion/1.0")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			if out == nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return nil
			}
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusConflict:
			resp.Body.Close()
			return ErrConflict

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
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

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay with up to +50% jitter. i is the
// retry attempt (0,1,2,...), base doubling each attempt.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
