package api

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"
	"time"
)

// RetryPolicy configures download retries. The wait before retry n (0-based)
// is Base^n * Unit plus a uniform jitter in [JitterMin, JitterMax].
type RetryPolicy struct {
	MaxAttempts   int
	Base          float64
	Unit          time.Duration
	JitterMin     time.Duration
	JitterMax     time.Duration
	RetryStatuses []int
}

// DefaultRetryPolicy returns the default retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		Base:          2,
		Unit:          time.Second,
		JitterMin:     time.Second,
		JitterMax:     2 * time.Second,
		RetryStatuses: []int{429, 502, 503, 504},
	}
}

// Backoff returns the wait before the retry following attempt n (0-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	wait := time.Duration(math.Pow(p.Base, float64(attempt)) * float64(p.Unit))
	if spread := p.JitterMax - p.JitterMin; spread > 0 {
		wait += p.JitterMin + time.Duration(rand.Int64N(int64(spread)+1))
	} else {
		wait += p.JitterMin
	}
	return wait
}

// Retryable reports whether a response status is transient
func (p RetryPolicy) Retryable(status int) bool {
	return slices.Contains(p.RetryStatuses, status)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
