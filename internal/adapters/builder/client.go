package builder

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

	"itinerary_pricing/internal/adapters/observability"
	"itinerary_pricing/internal/domain"
)

const service = "builder"

// Client reads day events and settings from the itinerary builder API.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil, fmt.Errorf("builder base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API (tries current endpoints first, falls back to legacy variants) ----

func (c *Client) GetDayEvents(ctx context.Context, packageID int64) (domain.DayEvents, error) {
	candidates := []string{
		fmt.Sprintf("%s/packages/%d/day-events", c.base, packageID),    // preferred
		fmt.Sprintf("%s/itineraries/%d/day-events", c.base, packageID), // legacy
	}
	var raw json.RawMessage
	if err := c.getFirst(ctx, "day_events", candidates, &raw); err != nil {
		return nil, err
	}
	payload := unwrap(raw, "data", "day_events", "dayEvents")
	out := domain.DayEvents{}
	if len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("builder: decode day events for package %d: %w", packageID, err)
	}
	return out, nil
}

// GetMaxHotelOptions returns the configured option ceiling. A builder without the setting
// yields the default.
func (c *Client) GetMaxHotelOptions(ctx context.Context) (int, error) {
	candidates := []string{
		c.base + "/settings/max-hotel-options", // preferred
		c.base + "/settings/max_hotel_options",
	}
	var raw json.RawMessage
	if err := c.getFirst(ctx, "max_hotel_options", candidates, &raw); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.DefaultMaxHotelOptions, nil
		}
		return 0, err
	}
	var body struct {
		Value any `json:"max_hotel_options"`
	}
	if err := json.Unmarshal(unwrap(raw, "data"), &body); err != nil {
		return 0, fmt.Errorf("builder: decode max hotel options: %w", err)
	}
	if n, ok := domain.IntFrom(body.Value); ok && n > 0 {
		return n, nil
	}
	return domain.DefaultMaxHotelOptions, nil
}

// ---- Internals ----

var (
	ErrUnauthorized = fmt.Errorf("builder: %w", domain.ErrUnauthorized)
	ErrForbidden    = fmt.Errorf("builder: %w", domain.ErrForbidden)
	errNotFound     = fmt.Errorf("builder: %w", domain.ErrNotFound)
)

// unwrap returns the first envelope member found among keys, or raw itself.
func unwrap(raw json.RawMessage, keys ...string) json.RawMessage {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	for _, k := range keys {
		if v, ok := env[k]; ok {
			return unwrap(v, keys...)
		}
	}
	return raw
}

func (c *Client) getFirst(ctx context.Context, endpoint string, urls []string, out any) error {
	var last error
	for _, u := range urls {
		if err := c.get(ctx, endpoint, u, out); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				last = err
				continue // try next pattern
			}
			return err // non-404: stop early
		}
		return nil // success
	}
	if last != nil {
		return last
	}
	return errors.New("no candidate URL succeeded")
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, url string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "itinerary-pricing/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, endpoint, 0, time.Since(start))
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
		observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return errNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("builder: remote %d", resp.StatusCode)
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
			return fmt.Errorf("builder: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
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

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
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

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
