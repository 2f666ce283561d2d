package storage

import (
	"sync"

	"github.com/solmirre/ally/internal/domain"
)

// Compile-time interface check.
var _ KV = (*MemoryKV)(nil)

// MemoryKV is an in-memory key/value store. Used by tests and by the
// ephemeral mode where nothing should touch disk. Safe for concurrent
// access.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string][]byte)}
}

// Get returns the value stored under key, or domain.ErrNotFound.
func (s *MemoryKV) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores value under key, replacing any previous value.
func (s *MemoryKV) Set(key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)

	s.mu.Lock()
	s.entries[key] = cp
	s.mu.Unlock()
	return nil
}

// Close is a no-op.
func (s *MemoryKV) Close() error { return nil }
