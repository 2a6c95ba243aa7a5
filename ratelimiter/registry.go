package ratelimiter

import "sync"

// Registry holds one Limiter per model name.
type Registry struct {
	limiters map[string]Limiter
	mu       sync.RWMutex
}

// NewRegistry creates an empty in-memory registry.
func NewRegistry() *Registry {
	return &Registry{
		limiters: make(map[string]Limiter),
	}
}

// Get returns the limiter for model, if any.
func (r *Registry) Get(model string) (Limiter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limiter, ok := r.limiters[model]
	return limiter, ok
}

// Set installs limiter for model. A nil limiter removes the entry.
func (r *Registry) Set(model string, limiter Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter == nil {
		delete(r.limiters, model)
		return
	}
	r.limiters[model] = limiter
}
