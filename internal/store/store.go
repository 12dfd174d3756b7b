// Package store provides the durable key/value state the relay keeps
// between polls: the recurring ticket counter and one handled-marker
// per purchase.
package store

import (
	"context"
	"sync"
)

// KV is the persistence contract consumed by the dedup gate and the
// ticket number allocator.
type KV interface {
	// Get returns the value for key, or ok=false if the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// PutIfAbsent stores value under key only if the key does not
	// exist yet. Returns true when this call inserted the key.
	// Implementations must make the check-then-set atomic at the
	// storage level, not read-then-write in Go.
	PutIfAbsent(ctx context.Context, key, value string) (bool, error)

	Close() error
}

// Memory is an in-process KV for tests. Not durable.
type Memory struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemory() *Memory { return &Memory{m: make(map[string]string)} }

func (s *Memory) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *Memory) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *Memory) PutIfAbsent(_ context.Context, key, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; ok {
		return false, nil
	}
	s.m[key] = value
	return true, nil
}

func (s *Memory) Close() error { return nil }

// Len returns the number of stored keys. Test helper.
func (s *Memory) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

var _ KV = (*Memory)(nil)
