// Package throttle provides client-side request throttling for embedding providers.
package throttle

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// Limiter spaces out provider requests with a token bucket.
// A nil *Limiter never blocks.
type Limiter struct {
	bucket *rate.Limiter
}

// New creates a limiter allowing perSecond requests with a burst of one.
// A non-positive or non-finite rate disables throttling and returns nil.
func New(perSecond float64) *Limiter {
	if perSecond <= 0 || math.IsNaN(perSecond) || math.IsInf(perSecond, 0) {
		return nil
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Wait blocks until a request may be sent or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	return l.bucket.Wait(ctx)
}

// Rate returns the configured requests per second, 0 when unlimited.
func (l *Limiter) Rate() float64 {
	if l == nil {
		return 0
	}
	return float64(l.bucket.Limit())
}
