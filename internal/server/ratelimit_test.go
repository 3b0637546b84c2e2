package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(RateLimitConfig{RPS: 2, Burst: 1}, func() time.Time { return now })

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"), "clients have separate buckets")

	now = now.Add(500 * time.Millisecond)
	assert.True(t, rl.allow("a"))
}

func TestRateLimiter_BurstDefaultsToRPS(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(RateLimitConfig{RPS: 3}, func() time.Time { return now })
	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow("a"))
	}
	assert.False(t, rl.allow("a"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(RateLimitConfig{RPS: 1, Burst: 1}, func() time.Time { return now })
	rl.allow("old")
	now = now.Add(11 * time.Minute)
	rl.allow("fresh")

	assert.Equal(t, 1, rl.sweep(10*time.Minute))
	assert.Len(t, rl.clients, 1)
}
