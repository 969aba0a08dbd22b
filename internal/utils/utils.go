// Package utils holds pacing helpers shared by the application loop.
package utils

import (
	"context"
	"math/rand/v2"
	"time"
)

var (
	sleep  = time.Sleep
	jitter = rand.Int64N
)

// WaitFor blocks for d or until ctx is done.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Pause is a randomized delay in [Min, Max]. Max below Min means a fixed Min.
type Pause struct {
	Min time.Duration `mapstructure:"min"`
	Max time.Duration `mapstructure:"max"`
}

// Duration picks the next delay.
func (p Pause) Duration() time.Duration {
	if p.Max <= p.Min {
		return p.Min
	}
	return p.Min + time.Duration(jitter(int64(p.Max-p.Min)+1))
}

// Wait sleeps for the next delay, returning early when ctx is done.
func (p Pause) Wait(ctx context.Context) error {
	return WaitFor(ctx, p.Duration())
}
