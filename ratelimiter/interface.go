package ratelimiter

import "time"

// Limiter gates generation attempts for one model.
// Implementations can be local (in-memory) or distributed (Redis, etc.).
type Limiter interface {
	// TryConsume atomically checks capacity for one request costing
	// numTokens and consumes it if available.
	TryConsume(numTokens int) bool

	// TimeUntilAvailable returns how long until such a request would fit (read-only).
	TimeUntilAvailable(numTokens int) time.Duration
}
