package meeting

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store persists invitation records. Insert must be an atomic
// check-and-insert: it fails with ErrDuplicateID when a live (not yet
// expired) meeting already holds the id, which is what makes id
// collision retry safe under concurrent creates.
type Store interface {
	Insert(ctx context.Context, m Meeting) error
	Get(ctx context.Context, id string) (Meeting, error)
	ConfirmSlot(ctx context.Context, id, slotTime string) (Meeting, error)
	RemoveExpired(ctx context.Context, olderThan time.Time) (int, error)
	LiveCount(ctx context.Context, now time.Time) (int, error)
	Close() error
}

// NewStore creates a postgres-backed store when configured, otherwise
// in-memory.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}

// MemoryStore is the in-process default. Expired records are retained
// until RemoveExpired runs; reads treat them as dead.
type MemoryStore struct {
	mu       sync.RWMutex
	meetings map[string]Meeting
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{meetings: make(map[string]Meeting)}
}

func (s *MemoryStore) Insert(_ context.Context, m Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.meetings[m.ID]; ok && existing.ExpiresAt.After(m.CreatedAt) {
		return ErrDuplicateID
	}
	s.meetings[m.ID] = m
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meetings[id]
	if !ok {
		return Meeting{}, ErrNotFound
	}
	return m, nil
}

func (s *MemoryStore) ConfirmSlot(_ context.Context, id, slotTime string) (Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return Meeting{}, ErrNotFound
	}
	m.SlotTime = slotTime
	m.Status = StatusConfirmed
	s.meetings[id] = m
	return m, nil
}

func (s *MemoryStore) RemoveExpired(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, m := range s.meetings {
		if m.ExpiresAt.Before(olderThan) {
			delete(s.meetings, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) LiveCount(_ context.Context, now time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, m := range s.meetings {
		if m.ExpiresAt.After(now) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Close() error { return nil }
