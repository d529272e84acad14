package chat

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps messages in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	max  int
	msgs []Message
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMaxMessages
	}
	return &MemoryStore{max: capacity}
}

func (s *MemoryStore) Append(_ context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
	if over := len(s.msgs) - s.max; over > 0 {
		s.msgs = slices.Delete(s.msgs, 0, over)
	}
	return nil
}

func (s *MemoryStore) List(context.Context) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message{}, s.msgs...), nil
}

func (s *MemoryStore) Remove(_ context.Context, id, author string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.msgs, func(m Message) bool { return m.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	if s.msgs[i].Username != author {
		return ErrForbidden
	}
	s.msgs = slices.Delete(s.msgs, i, i+1)
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = nil
	return nil
}
