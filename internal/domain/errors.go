package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError marks malformed or out-of-range user intent. Surfaced to
// the caller as-is; never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ErrMarketDataUnavailable means asset metadata or a price is not cached
// yet. Callers should wait for the caches to populate, not retry hard.
var ErrMarketDataUnavailable = errors.New("market data unavailable")

// RateLimitedError wraps a venue rate-limit rejection. By the time a caller
// sees it, the throttle has already slept the backoff, so an immediate
// caller retry is safe.
type RateLimitedError struct {
	Key string
	Err error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited on %s: %v", e.Key, e.Err)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// AccountNotActivatedError means the venue does not know the address yet.
// The account needs an initial deposit before it can trade.
type AccountNotActivatedError struct {
	Address string
}

func (e *AccountNotActivatedError) Error() string {
	return fmt.Sprintf("account %s is not activated on the venue: deposit funds first", e.Address)
}

// OrderError is any other submission failure. The venue message is carried
// verbatim; blind retry risks duplicate execution, so callers must not.
type OrderError struct {
	Message string
}

func (e *OrderError) Error() string {
	return "order rejected: " + e.Message
}

// IsRateLimit classifies an error as a venue rate-limit signal: HTTP 429 or
// an equivalent message.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Too Many Requests")
}

// IsNotActivated classifies a venue rejection message that indicates the
// account has never been funded.
func IsNotActivated(msg string) bool {
	return strings.Contains(msg, "does not exist") || strings.Contains(msg, "not registered")
}
