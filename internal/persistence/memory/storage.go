package memory

import (
	"context"
	"maps"
	"sync"
)

type Storage struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewStorage() *Storage {
	return &Storage{
		entries: make(map[string]string),
	}
}

func (s *Storage) Load(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]

	return value, ok, nil
}

func (s *Storage) Store(_ context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	maps.Copy(s.entries, entries)

	return nil
}

func (s *Storage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.entries, key)
	}

	return nil
}
