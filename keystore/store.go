// Package keystore persists one API key per provider.
package keystore

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when no key is stored for a provider.
var ErrNotFound = errors.New("api key not found")

// Store holds the active credential of each provider.
type Store interface {
	Get(ctx context.Context, provider string) (string, error)
	Set(ctx context.Context, provider, key string) error
	Remove(ctx context.Context, provider string) error
}

// KeyFor returns the storage key used for provider, e.g. "gemini_api_key".
func KeyFor(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider)) + "_api_key"
}

// Mask hides all but the last four characters of key.
func Mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key cannot be empty")
	}
	return nil
}
