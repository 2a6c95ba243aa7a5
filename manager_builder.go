package thumbgen

import (
	"log/slog"

	"github.com/mhpenta/thumbgen/keystore"
	"github.com/mhpenta/thumbgen/ratelimiter"
)

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLogger sets a structured logger for the manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithStorage sets a storage backend for downloaded images.
func WithStorage(storage Storage) ManagerOption {
	return func(m *Manager) {
		m.storage = storage
	}
}

// WithProvider registers an additional generator.
func WithProvider(gen ImageGenerator) ManagerOption {
	return func(m *Manager) {
		m.RegisterProvider(gen)
	}
}

// WithDefaultProvider sets the provider used when a request names none.
func WithDefaultProvider(provider Provider) ManagerOption {
	return func(m *Manager) {
		m.defaultProvider = provider
	}
}

// WithCredentialStore sets where credentials are read when a request
// carries none.
func WithCredentialStore(store keystore.Store) ManagerOption {
	return func(m *Manager) {
		m.credentials = store
	}
}

// WithTemplateSource sets the resolver for style template references.
func WithTemplateSource(source TemplateSource) ManagerOption {
	return func(m *Manager) {
		m.templates = source
	}
}

// WithPromptVariation replaces the per-attempt description strategy.
func WithPromptVariation(variation PromptVariation) ManagerOption {
	return func(m *Manager) {
		if variation == nil {
			variation = NoVariation{}
		}
		m.variation = variation
	}
}

// WithMaxCount sets the ceiling on attempts per run.
func WithMaxCount(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.maxCount = n
		}
	}
}

// WithTokenEstimator replaces the estimator used for rate limiting.
func WithTokenEstimator(estimator TokenEstimator) ManagerOption {
	return func(m *Manager) {
		m.tokenEstimator = estimator
	}
}

// WithRateLimiter overrides the limiter for one model.
func WithRateLimiter(model Model, limiter ratelimiter.Limiter) ManagerOption {
	return func(m *Manager) {
		m.rateLimiters.Set(string(model), limiter)
	}
}

// NewManager creates a Manager with the given provider and options.
// defaultProvider's provider becomes the default for requests that name none.
//
// Example:
//
//	gen := gemini.New()
//	manager := thumbgen.NewManager(gen)
//
// With options:
//
//	manager := thumbgen.NewManager(gemini.New(),
//	    thumbgen.WithProvider(openai.New()),
//	    thumbgen.WithCredentialStore(store),
//	    thumbgen.WithLogger(slog.Default()),
//	)
func NewManager(defaultProvider ImageGenerator, opts ...ManagerOption) *Manager {
	m := New()

	if defaultProvider != nil {
		m.RegisterProvider(defaultProvider)
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}
