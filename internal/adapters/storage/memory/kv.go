package memory

import (
	"context"
	"sync"

	"eps-citas/internal/ports/storage"
)

type kv struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewKV crea un almacenamiento de sesión en memoria (no sobrevive al proceso).
func NewKV() storage.KV {
	return &kv{values: make(map[string]string)}
}

func (s *kv) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

func (s *kv) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

func (s *kv) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}
