// Package provider holds the shared HTTP client machinery for the external
// metadata sources: per-provider rate limiting, bounded retries with
// exponential backoff, provider-wide cooldown after repeated rate limiting,
// and the error taxonomy the importer dispatches on.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/jazzvault/JazzVault/internal/cache"
)

// Cache TTLs shared by the adapters.
const (
	TTLMetadata = 30 * 24 * time.Hour
	TTLWebPage  = 7 * 24 * time.Hour
)

// ──────────────────── Error taxonomy ────────────────────

// ErrNotFound reports that the provider confirmed the entity does not
// exist. Adapters cache this negatively and callers treat it as an empty,
// valid result rather than a failure.
var ErrNotFound = errors.New("provider: not found")

// ErrAuthFailed reports a 401 from an authenticated provider. The client
// clears its cached token; the next call refreshes it.
var ErrAuthFailed = errors.New("provider: authentication failed")

// RateLimitError is returned after retries against a rate-limiting provider
// are exhausted. The provider is placed in cooldown.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited (retry after %s)", e.Provider, e.RetryAfter)
}

// TransientError wraps a network-level failure that persisted through the
// retry budget.
type TransientError struct {
	Provider string
	Cause    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Provider, e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// StatusError reports a terminal, unexpected HTTP status.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Status)
}

// ──────────────────── Rate-limited doer ────────────────────

// Doer wraps an http.Client with the scheduling rules every provider client
// follows. A Doer is single-threaded by design: the limiter timestamp and
// cooldown deadline are mutable, so concurrent workers must each own their
// own instance.
type Doer struct {
	Name        string
	UserAgent   string
	MaxRetries  int
	BaseBackoff time.Duration
	Cooldown    time.Duration

	// RateLimitStatuses lists statuses treated as "slow down" beyond 429
	// (503 for MusicBrainz and the Cover Art Archive, 403 for iTunes).
	RateLimitStatuses []int
	// NotFoundStatuses lists statuses mapped to ErrNotFound (usually 404).
	NotFoundStatuses []int

	client        *http.Client
	limiter       *rate.Limiter
	cooldownUntil time.Time
}

// NewDoer builds a Doer enforcing minInterval between outbound requests and
// timeout per call.
func NewDoer(name string, minInterval, timeout time.Duration) *Doer {
	return &Doer{
		Name:              name,
		MaxRetries:        3,
		BaseBackoff:       time.Second,
		Cooldown:          120 * time.Second,
		RateLimitStatuses: []int{http.StatusTooManyRequests},
		NotFoundStatuses:  []int{http.StatusNotFound},
		client:            &http.Client{Timeout: timeout},
		limiter:           rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Get performs a GET against url with the provider's scheduling rules and
// returns the response body. Headers may be nil.
func (d *Doer) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= d.MaxRetries; attempt++ {
		if err := d.waitTurn(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if d.UserAgent != "" {
			req.Header.Set("User-Agent", d.UserAgent)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := d.client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if err := d.backoff(ctx, attempt, 0); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				lastErr = readErr
				continue
			}
			return body, nil

		case statusIn(resp.StatusCode, d.NotFoundStatuses):
			return nil, ErrNotFound

		case resp.StatusCode == http.StatusUnauthorized:
			return nil, ErrAuthFailed

		case statusIn(resp.StatusCode, d.RateLimitStatuses):
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			lastErr = &RateLimitError{Provider: d.Name, RetryAfter: retryAfter}
			if attempt == d.MaxRetries {
				break
			}
			if err := d.backoff(ctx, attempt, retryAfter); err != nil {
				return nil, err
			}
			continue

		default:
			return nil, &StatusError{Provider: d.Name, Status: resp.StatusCode, Body: string(body)}
		}
	}

	// Retries exhausted. A rate-limit exhaustion parks the whole provider.
	var rl *RateLimitError
	if errors.As(lastErr, &rl) {
		d.cooldownUntil = time.Now().Add(d.Cooldown)
		return nil, rl
	}
	return nil, &TransientError{Provider: d.Name, Cause: lastErr}
}

// waitTurn honors the provider cooldown and then the inter-request interval.
func (d *Doer) waitTurn(ctx context.Context) error {
	if until := time.Until(d.cooldownUntil); until > 0 {
		select {
		case <-time.After(until):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return d.limiter.Wait(ctx)
}

// backoff sleeps before the next attempt, honoring Retry-After when the
// provider sent one.
func (d *Doer) backoff(ctx context.Context, attempt int, retryAfter time.Duration) error {
	delay := d.BaseBackoff << uint(attempt)
	if retryAfter > delay {
		delay = retryAfter
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InCooldown reports whether the provider is parked after rate-limit
// exhaustion.
func (d *Doer) InCooldown() bool {
	return time.Now().Before(d.cooldownUntil)
}

func statusIn(status int, list []int) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

// FetchCached is the read-through path every adapter uses: consult the
// cache first, go to the network on a miss, and record both positive and
// not-found results. A NegativeHit short-circuits to ErrNotFound without a
// network call.
func FetchCached(ctx context.Context, d *Doer, store cache.Store, kind, key, url string, ttl time.Duration, headers map[string]string) ([]byte, error) {
	if data, outcome := store.Load(d.Name, kind, key, ttl); outcome == cache.Hit {
		return data, nil
	} else if outcome == cache.NegativeHit {
		return nil, ErrNotFound
	}

	body, err := d.Get(ctx, url, headers)
	if errors.Is(err, ErrNotFound) {
		store.SaveNotFound(d.Name, kind, key)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	store.Save(d.Name, kind, key, body)
	return body, nil
}

// parseRetryAfter accepts both Retry-After forms from RFC 7231:
// delta-seconds and an HTTP-date.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
