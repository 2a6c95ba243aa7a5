package keystore

import (
	"context"
	"sync"
)

// MemoryStore keeps keys for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, provider string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[KeyFor(provider)]
	if !ok {
		return "", ErrNotFound
	}
	return key, nil
}

func (s *MemoryStore) Set(_ context.Context, provider, key string) error {
	if err := validKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[KeyFor(provider)] = key
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, KeyFor(provider))
	return nil
}
