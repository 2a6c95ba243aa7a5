package ratelimiter

import (
	"sync"
	"time"
)

// AttemptLimiter combines a token budget and a request budget, both
// replenished continuously over one minute.
type AttemptLimiter struct {
	tokens   *TokenBucket // nil = unlimited
	requests *TokenBucket // nil = unlimited
}

// Ensure AttemptLimiter implements Limiter.
var _ Limiter = (*AttemptLimiter)(nil)

// New returns a limiter allowing tokensPerMinute estimated prompt tokens and
// requestsPerMinute requests. A non-positive limit disables that budget.
func New(tokensPerMinute, requestsPerMinute int) *AttemptLimiter {
	l := &AttemptLimiter{}
	if tokensPerMinute > 0 {
		l.tokens = NewTokenBucket(tokensPerMinute, time.Minute)
	}
	if requestsPerMinute > 0 {
		l.requests = NewTokenBucket(requestsPerMinute, time.Minute)
	}
	return l
}

// TryConsume takes numTokens and one request, or nothing.
func (l *AttemptLimiter) TryConsume(numTokens int) bool {
	if l.tokens != nil && !l.tokens.TryConsume(numTokens) {
		return false
	}
	if l.requests != nil && !l.requests.TryConsume(1) {
		if l.tokens != nil {
			l.tokens.refund(numTokens)
		}
		return false
	}
	return true
}

// TimeUntilAvailable returns the longer of the two budgets' waits.
func (l *AttemptLimiter) TimeUntilAvailable(numTokens int) time.Duration {
	var wait time.Duration
	if l.tokens != nil {
		wait = l.tokens.TimeUntilAvailable(numTokens)
	}
	if l.requests != nil {
		wait = max(wait, l.requests.TimeUntilAvailable(1))
	}
	return wait
}

// TokenBucket is a continuously refilling token bucket.
type TokenBucket struct {
	mu       sync.Mutex
	capacity float64
	level    float64
	rate     float64 // tokens per nanosecond
	last     time.Time
	now      func() time.Time
}

// NewTokenBucket returns a full bucket that refills capacity tokens per interval.
func NewTokenBucket(capacity int, interval time.Duration) *TokenBucket {
	return newTokenBucketAt(capacity, interval, time.Now)
}

func newTokenBucketAt(capacity int, interval time.Duration, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		capacity: float64(capacity),
		level:    float64(capacity),
		rate:     float64(capacity) / float64(interval),
		last:     now(),
		now:      now,
	}
}

// refill must be called with mu held.
func (tb *TokenBucket) refill() {
	now := tb.now()
	if elapsed := now.Sub(tb.last); elapsed > 0 {
		tb.level = min(tb.capacity, tb.level+float64(elapsed)*tb.rate)
		tb.last = now
	}
}

// TryConsume takes tokens if the bucket holds enough.
func (tb *TokenBucket) TryConsume(tokens int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if float64(tokens) > tb.level {
		return false
	}
	tb.level -= float64(tokens)
	return true
}

func (tb *TokenBucket) refund(tokens int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.level = min(tb.capacity, tb.level+float64(tokens))
}

// Remaining returns the whole tokens currently available.
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return int(tb.level)
}

// TimeUntilAvailable returns how long until tokens would be available.
// Requests larger than the capacity never fit and report the full refill time.
func (tb *TokenBucket) TimeUntilAvailable(tokens int) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	need := min(float64(tokens), tb.capacity) - tb.level
	if need <= 0 {
		return 0
	}
	return time.Duration(need / tb.rate)
}
