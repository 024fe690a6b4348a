// Package memkv is a process-local KV medium. Nothing survives a restart;
// it backs tests and the "memory" storage backend.
package memkv

import (
	"context"
	"sync"

	"github.com/akywe-ledger/akywe/internal/domain"
)

// Store is an in-memory domain.KVStore.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailPut, when set, is returned by every write. Tests use it to
	// simulate a full disk.
	FailPut error
}

var _ domain.BatchKVStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns a copy of the value for key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value under key.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut != nil {
		return s.FailPut
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// PutMany stores every entry under one lock.
func (s *Store) PutMany(_ context.Context, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut != nil {
		return s.FailPut
	}
	for k, v := range entries {
		s.data[k] = append([]byte(nil), v...)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
