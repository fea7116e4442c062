// Package memstore is an in-process domain.KVStore.
package memstore

import (
	"fmt"
	"sync"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
)

// Store is a mutex-guarded map. Values are copied on the way in and out.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ domain.KVStore = (*Store)(nil)

// New returns an empty store.
func New() *Store { return &Store{data: map[string][]byte{}} }

func (s *Store) Put(_ domain.Context, key string, value []byte) error {
	cp := append([]byte(nil), value...)
	s.mu.Lock()
	s.data[key] = cp
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(_ domain.Context, key string) ([]byte, error) {
	s.mu.RLock()
	v, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("op=memstore.Get key=%s: %w", key, domain.ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Ping(domain.Context) error { return nil }

// Len reports the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
