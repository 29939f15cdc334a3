package llmcaller

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// HTTPError carries enough of a failed completion call's response for
// transient-error classification and Retry-After handling.
type HTTPError struct {
	StatusCode int
	RetryAfter string // raw header value, seconds or HTTP-date
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "llm call failed with status " + strconv.Itoa(e.StatusCode)
}

func (e *HTTPError) Unwrap() error { return e.Err }

var transientSubstrings = []string{
	"timeout",
	"connection reset",
	"connection refused",
	"temporarily unavailable",
	"too many requests",
	"eof",
}

// IsTransientError classifies HTTP 429/5xx and connection/timeout
// failures as retryable.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		if he.StatusCode == 429 || he.StatusCode >= 500 {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, s := range transientSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// ParseRetryAfter interprets an HTTP Retry-After header value as a
// duration. Only the delay-seconds form is supported; HTTP-date values
// are rejected (ok=false) since callers fall back to jittered delay.
func ParseRetryAfter(header string) (time.Duration, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// RetryConfig bounds the caller's retry/backoff policy.
type RetryConfig struct {
	MaxRetries      int
	MinDelay        time.Duration
	MaxDelay        time.Duration
	RetryAfterCap   time.Duration
	PrimaryTimeout  time.Duration
	RetryTimeoutCap time.Duration
}

// DefaultRetryConfig picks defaults of up to 3 retries, each delayed by
// Retry-After (capped at 60s) or else by a uniform random delay in
// [500ms, 30s] (see retryDelay); the delay does not grow between
// attempts. cenkalti/backoff is used the way telnet2-opencode's
// internal/session/loop.go uses it (for its attempt/context-
// cancellation loop rather than its own delay curve).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		MinDelay:        500 * time.Millisecond,
		MaxDelay:        30 * time.Second,
		RetryAfterCap:   60 * time.Second,
		PrimaryTimeout:  60 * time.Second,
		RetryTimeoutCap: 10 * time.Second,
	}
}

// QuickRetryTimeout returns min(retry_timeout_cap, 0.4*primary_timeout):
// a shorter timeout applied to retry attempts after the primary
// attempt's own deadline has already eaten into the turn's budget.
func QuickRetryTimeout(cfg RetryConfig) time.Duration {
	quick := time.Duration(float64(cfg.PrimaryTimeout) * 0.4)
	if quick > cfg.RetryTimeoutCap {
		return cfg.RetryTimeoutCap
	}
	return quick
}

// retryDelay honours Retry-After (capped) when present, else a
// uniform random delay in [MinDelay, MaxDelay].
func retryDelay(cfg RetryConfig, err error) time.Duration {
	var he *HTTPError
	if errors.As(err, &he) {
		if d, ok := ParseRetryAfter(he.RetryAfter); ok {
			if d > cfg.RetryAfterCap {
				d = cfg.RetryAfterCap
			}
			return d
		}
	}
	span := cfg.MaxDelay - cfg.MinDelay
	if span <= 0 {
		return cfg.MinDelay
	}
	return cfg.MinDelay + time.Duration(rand.Int63n(int64(span)))
}

// WithRetry runs op, retrying transient failures. Delay between
// attempts follows this package's own Retry-After/jitter policy
// (retryDelay), not backoff's exponential curve — telnet2-opencode's
// internal/session/loop.go reaches for cenkalti/backoff the same way,
// for its attempt-counting and context-aware retry loop (there via
// backoff.WithContext/WithMaxRetries on a v4 ExponentialBackOff; here
// via v5's generic backoff.Retry with a ZeroBackOff contributing no
// delay of its own, since the delay policy is computed separately).
// Non-transient errors stop retrying immediately via backoff.Permanent.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !IsTransientError(err) {
			return result, backoff.Permanent(err)
		}
		if d := retryDelay(cfg, err); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, ctx.Err()
			case <-timer.C:
			}
		}
		return result, err
	}, backoff.WithBackOff(&backoff.ZeroBackOff{}), backoff.WithMaxTries(uint(cfg.MaxRetries+1)))
}
