package memory

import (
	"context"
	"sync"
)

// Store persists one Snapshot blob per user. Operations are whole-unit
// read-modify-write; concurrent writers for the same user are last-writer-wins
// and are serialized above this interface by the Manager.
type Store interface {
	// Load returns the user's snapshot, or an empty snapshot if the user has
	// no stored memories yet.
	Load(ctx context.Context, userID string) (Snapshot, error)
	// Save replaces the user's snapshot.
	Save(ctx context.Context, userID string, snap Snapshot) error
	Close() error
}

// MemStore is an in-memory Store used in tests and ephemeral sessions.
type MemStore struct {
	mu    sync.RWMutex
	users map[string]Snapshot
}

func NewMemStore() *MemStore {
	return &MemStore{users: map[string]Snapshot{}}
}

func (s *MemStore) Load(ctx context.Context, userID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.users[userID]
	if !ok {
		return Snapshot{}, nil
	}
	return snap.Clone(), nil
}

func (s *MemStore) Save(ctx context.Context, userID string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = snap.Clone()
	return nil
}

func (s *MemStore) Close() error { return nil }
