package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(t time.Time) (func() time.Time, func(time.Duration)) {
	now := t
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestRateLimiter_Reserve(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock, advance := fixedClock(start)

	rl := NewRateLimiter(2, time.Minute)
	rl.now = clock
	rl.lastReset = start

	assert.Zero(t, rl.reserve())
	assert.Zero(t, rl.reserve())

	advance(20 * time.Second)
	assert.Equal(t, 40*time.Second, rl.reserve(), "third call waits for the next window")

	advance(40 * time.Second)
	assert.Zero(t, rl.reserve(), "second slot of the reserved window")

	advance(time.Minute)
	assert.Zero(t, rl.reserve(), "window reset after the interval")
}

func TestRateLimiter_Wait(t *testing.T) {
	t.Run("within the limit", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Hour)
		assert.NoError(t, rl.Wait(context.Background()))
	})

	t.Run("context canceled while waiting", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Hour)
		assert.NoError(t, rl.Wait(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, rl.Wait(ctx), context.Canceled)
	})

	t.Run("waits for a short window", func(t *testing.T) {
		start := time.Now()
		rl := NewRateLimiter(1, 20*time.Millisecond)
		assert.NoError(t, rl.Wait(context.Background()))
		assert.NoError(t, rl.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})
}
