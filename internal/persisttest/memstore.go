// Package persisttest provides an in-memory StateStore for cache tests.
package persisttest

import (
	"context"
	"sync"

	"github.com/voidws/xcpilot/internal/ports"
)

// MemStore keeps blobs in a map. It is safe for concurrent use so the
// caches' background load and debounced persists can run against it.
type MemStore struct {
	mu        sync.Mutex
	enabled   bool
	blobs     map[string][]byte
	saveCalls int
}

func NewMemStore(enabled bool) *MemStore {
	return &MemStore{enabled: enabled, blobs: make(map[string][]byte)}
}

func (s *MemStore) Enabled() bool { return s.enabled }

func (s *MemStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	return data, ok, nil
}

func (s *MemStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), data...)
	s.saveCalls++
	return nil
}

// SaveCalls reports how many times Save ran.
func (s *MemStore) SaveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCalls
}

var _ ports.StateStore = (*MemStore)(nil)
