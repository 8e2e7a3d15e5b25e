package storage

import (
	"context"
	"sync"

	"github.com/spec-kit/coop-console/internal/domain"
)

// MemoryBackend keeps every client namespace in process memory.
type MemoryBackend struct {
	mu      sync.RWMutex
	clients map[domain.ClientID]map[string]string
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{clients: make(map[domain.ClientID]map[string]string)}
}

// Scope returns the namespace for client.
func (b *MemoryBackend) Scope(client domain.ClientID) ClientStorage {
	return &memoryScope{backend: b, client: client}
}

// Ping always succeeds.
func (b *MemoryBackend) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (b *MemoryBackend) Close() {}

// NewMemoryStorage returns a standalone namespace, handy in tests.
func NewMemoryStorage() ClientStorage {
	return NewMemoryBackend().Scope("local")
}

type memoryScope struct {
	backend *MemoryBackend
	client  domain.ClientID
}

func (s *memoryScope) Get(_ context.Context, key string) (string, bool, error) {
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	val, ok := s.backend.clients[s.client][key]
	return val, ok, nil
}

func (s *memoryScope) Set(_ context.Context, key, value string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	values, ok := s.backend.clients[s.client]
	if !ok {
		values = make(map[string]string)
		s.backend.clients[s.client] = values
	}
	values[key] = value
	return nil
}

func (s *memoryScope) Delete(_ context.Context, key string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	values, ok := s.backend.clients[s.client]
	if !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		delete(s.backend.clients, s.client)
	}
	return nil
}
