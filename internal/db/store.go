package db

import (
	"context"
	"sync"
)

// Store is where deletion requests live. Implementations only ever append;
// ListAll returns records in insertion order.
type Store interface {
	Append(ctx context.Context, req DeletionRequest) error
	ListAll(ctx context.Context) ([]DeletionRequest, error)
}

// MemoryStore keeps requests for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	requests []DeletionRequest
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, req DeletionRequest) error {
	s.mu.Lock()
	req.Seq = uint(len(s.requests) + 1)
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return nil
}

// ListAll returns a copy so callers can reorder it freely.
func (s *MemoryStore) ListAll(_ context.Context) ([]DeletionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DeletionRequest, len(s.requests))
	copy(out, s.requests)
	return out, nil
}
