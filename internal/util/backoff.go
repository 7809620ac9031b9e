package util

import (
	"context"
	"time"
)

// Backoff produces a doubling delay capped at Max. It is not safe for
// concurrent use.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// NewBackoff returns a Backoff starting at initial. A max below initial is
// raised to initial.
func NewBackoff(initial, max time.Duration) *Backoff {
	if max < initial {
		max = initial
	}
	return &Backoff{initial: initial, max: max, current: initial}
}

// Next returns the delay to wait before the next retry and doubles the
// following one, so consecutive calls yield 1s, 2s, 4s ... up to max.
func (b *Backoff) Next() time.Duration {
	d := b.current
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Current returns the delay Next would return without advancing.
func (b *Backoff) Current() time.Duration {
	return b.current
}

// Reset restores the initial delay.
func (b *Backoff) Reset() {
	b.current = b.initial
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
