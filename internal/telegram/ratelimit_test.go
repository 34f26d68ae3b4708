package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter(10.0, 1)

	start := time.Now()
	err := rl.Wait(context.Background())

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond, "first request should be immediate")
}

func TestRateLimiter_Wait_ContextCanceled(t *testing.T) {
	rl := NewRateLimiter(0.1, 1)

	// use up the burst
	_ = rl.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Error(t, rl.Wait(ctx))
}

func TestRateLimiter_SetFloodWait(t *testing.T) {
	rl := NewRateLimiter(10.0, 1)
	rl.SetFloodWait(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := rl.Wait(ctx)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestRateLimiter_FloodWaitExpires(t *testing.T) {
	rl := NewRateLimiter(10.0, 1)
	rl.floodWaitUntil = time.Now().Add(-100 * time.Millisecond)

	start := time.Now()
	err := rl.Wait(context.Background())

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiter_ObserveError(t *testing.T) {
	rl := NewRateLimiter(10.0, 1)

	_, ok := rl.ObserveError(errors.New("plain failure"))
	assert.False(t, ok)

	d, ok := rl.ObserveError(tgerr.New(420, "FLOOD_WAIT_3"))
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)
	assert.True(t, rl.floodWaitUntil.After(time.Now()))
}
