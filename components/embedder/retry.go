package embedder

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/bububa/scrape-embeddings/pkg/logger"
)

// RetryOptions bounds the exponential backoff applied to provider calls.
type RetryOptions struct {
	// Attempts is the total number of tries, including the first one
	Attempts int
	// Base is the first backoff delay, doubled on every retry
	Base time.Duration
	// Max caps a single backoff delay
	Max time.Duration
	// Jitter adds a random delay up to this duration
	Jitter time.Duration
}

func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		Attempts: 3,
		Base:     200 * time.Millisecond,
		Max:      2 * time.Second,
		Jitter:   50 * time.Millisecond,
	}
}

func (r RetryOptions) backoff() retry.Backoff {
	base := r.Base
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	b := retry.NewExponential(base)
	if r.Max > 0 {
		b = retry.WithCappedDuration(r.Max, b)
	}
	if r.Jitter > 0 {
		b = retry.WithJitter(r.Jitter, b)
	}
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return retry.WithMaxRetries(uint64(attempts-1), b) // #nosec G115 -- attempts >= 1
}

// Call runs fn under the per call timeout, retrying the failures isTransient accepts.
// A nil isTransient falls back to IsTransient. The last error is returned unwrapped.
func (i Options) Call(ctx context.Context, fn func(context.Context) error, isTransient func(error) bool) error {
	if isTransient == nil {
		isTransient = IsTransient
	}
	var attempt int
	return retry.Do(ctx, i.retry.backoff(), func(ctx context.Context) error {
		attempt++
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if i.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, i.timeout)
		}
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if isTransient(err) || errors.Is(err, context.DeadlineExceeded) {
			logger.FromContext(ctx).Warn(
				"provider call failed",
				"provider", i.provider,
				"attempt", attempt,
				"max_attempts", i.retry.Attempts,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		return err
	})
}

// IsTransient reports whether err is worth retrying: network failures,
// rate limiting and server errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) {
		return temp.Temporary()
	}
	return false
}
