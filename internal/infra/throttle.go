package infra

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"perp_go/internal/domain"
)

const (
	// DefaultMinInterval is the default spacing between issued requests of
	// the same class.
	DefaultMinInterval = 1 * time.Second

	// MaxBackoffDelay caps the exponential backoff applied after
	// consecutive rate-limit errors.
	MaxBackoffDelay = 30 * time.Second

	backoffBase = 1 * time.Second
)

// call is one in-flight request shared by every coalesced waiter.
type call struct {
	done chan struct{}
	val  any
	err  error
}

// throttleState tracks one request-class key.
type throttleState struct {
	inFlight    *call
	lastRequest time.Time
	errorCount  int
}

// Throttle governs outbound read requests: it coalesces duplicate in-flight
// calls per key, enforces a minimum wall-clock interval between issued
// calls, and applies exponential backoff after venue rate-limit errors.
// Construct one per process (or per test) and inject it; there is no global
// instance.
type Throttle struct {
	mu    sync.Mutex
	state map[string]*throttleState
}

// NewThrottle creates an empty throttle. Keys are created lazily on first
// use.
func NewThrottle() *Throttle {
	return &Throttle{state: make(map[string]*throttleState)}
}

// BackoffDelay returns min(2^errorCount x 1s, 30s), or zero when no
// consecutive rate-limit errors are recorded.
func BackoffDelay(errorCount int) time.Duration {
	if errorCount <= 0 {
		return 0
	}
	// 2^30s already exceeds the cap by orders of magnitude.
	if errorCount > 30 {
		return MaxBackoffDelay
	}
	d := backoffBase * time.Duration(1<<errorCount)
	if d > MaxBackoffDelay {
		return MaxBackoffDelay
	}
	return d
}

// Do runs fn under the throttle discipline for key.
//
// If a request for key is already in flight, the caller waits for that
// result instead of issuing a duplicate. Otherwise the caller is delayed by
// max(minInterval - elapsed, backoff) before fn is issued. A rate-limit
// failure increments the per-key error count and sleeps the grown backoff
// before returning the error, so the caller's own retry is already spaced.
// Any other failure resets the error count and returns immediately.
func (t *Throttle) Do(ctx context.Context, key string, minInterval time.Duration, fn func(context.Context) (any, error)) (any, error) {
	t.mu.Lock()
	st, ok := t.state[key]
	if !ok {
		st = &throttleState{}
		t.state[key] = st
	}

	if c := st.inFlight; c != nil {
		t.mu.Unlock()
		select {
		case <-c.done:
			return c.val, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	delay := minInterval - time.Since(st.lastRequest)
	if b := BackoffDelay(st.errorCount); b > delay {
		delay = b
	}
	if delay < 0 {
		delay = 0
	}

	c := &call{done: make(chan struct{})}
	st.inFlight = c
	t.mu.Unlock()

	c.val, c.err = t.issue(ctx, key, st, c, delay, minInterval, fn)
	close(c.done)
	return c.val, c.err
}

func (t *Throttle) issue(ctx context.Context, key string, st *throttleState, c *call, delay, minInterval time.Duration, fn func(context.Context) (any, error)) (any, error) {
	// Drop the in-flight marker after a grace delay so an immediate retry
	// still coalesces into the spacing window.
	defer func() {
		time.AfterFunc(minInterval, func() {
			t.mu.Lock()
			if st.inFlight == c {
				st.inFlight = nil
			}
			t.mu.Unlock()
		})
	}()

	if delay > 0 {
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}

	t.mu.Lock()
	st.lastRequest = time.Now()
	t.mu.Unlock()

	val, err := fn(ctx)
	if err == nil {
		t.mu.Lock()
		st.errorCount = 0
		t.mu.Unlock()
		return val, nil
	}

	if domain.IsRateLimit(err) {
		t.mu.Lock()
		st.errorCount++
		backoff := BackoffDelay(st.errorCount)
		t.mu.Unlock()

		slog.Warn("rate limited, backing off before surfacing the error",
			slog.String("key", key),
			slog.Duration("backoff", backoff))
		if serr := sleepCtx(ctx, backoff); serr != nil {
			return nil, serr
		}
		return nil, &domain.RateLimitedError{Key: key, Err: err}
	}

	// Non-rate-limit failures do not compound backoff.
	t.mu.Lock()
	st.errorCount = 0
	t.mu.Unlock()
	return nil, err
}

// ErrorCount exposes the consecutive rate-limit error count for a key
// (monitoring and tests).
func (t *Throttle) ErrorCount(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.state[key]; ok {
		return st.errorCount
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DoTyped is a typed wrapper over Throttle.Do for callers that want their
// concrete result back without the any round-trip.
func DoTyped[T any](ctx context.Context, t *Throttle, key string, minInterval time.Duration, fn func(context.Context) (T, error)) (T, error) {
	v, err := t.Do(ctx, key, minInterval, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
