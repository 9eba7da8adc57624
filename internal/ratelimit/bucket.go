package ratelimit

import (
	"math"
	"sync"
	"time"
)

// TokenBucket is a continuously refilled counter. Tokens accumulate at
// fillRate per second up to capacity; a request is admitted only if it can
// consume its full cost in one step.
//
// Tokens are kept as float64 so fractional refill accumulates between
// calls; truncation to an integer happens only in Remaining().
type TokenBucket struct {
	clock    Clock
	capacity int
	fillRate float64 // tokens per second

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucket creates a bucket starting at full capacity.
func NewTokenBucket(clock Clock, capacity int, fillRate float64) *TokenBucket {
	return &TokenBucket{
		clock:      clock,
		capacity:   capacity,
		fillRate:   fillRate,
		tokens:     float64(capacity),
		lastRefill: clock.Now(),
	}
}

// refill advances tokens by the elapsed time. Must be called with mu held.
// Safe to call redundantly; clamps at capacity and ignores clock rewinds.
func (b *TokenBucket) refill() {
	now := b.clock.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(float64(b.capacity), b.tokens+elapsed*b.fillRate)
	}
	b.lastRefill = now
}

// Consume attempts to take n tokens. All or nothing: on failure the token
// count is left unchanged apart from the refill.
func (b *TokenBucket) Consume(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return true
	}
	return false
}

// Remaining refills and reports the current whole-token count. This is a
// side-effecting read: the refill state advances.
func (b *TokenBucket) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return int(b.tokens)
}

// Capacity returns the configured maximum.
func (b *TokenBucket) Capacity() int {
	return b.capacity
}
