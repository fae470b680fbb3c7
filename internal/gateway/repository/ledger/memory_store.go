package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore keeps the last capacity entries in a ring.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryStore{entries: make([]Entry, capacity)}
}

func (s *MemoryStore) Append(_ context.Context, e Entry) (Entry, error) {
	if s == nil {
		return Entry{}, fmt.Errorf("store is nil")
	}
	e = normalize(e)
	if e.Call == "" {
		return Entry{}, fmt.Errorf("call is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.next] = e
	s.next = (s.next + 1) % len(s.entries)
	if s.next == 0 {
		s.full = true
	}
	return e, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Entry, error) {
	if s == nil {
		return Entry{}, fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Entry{}, fmt.Errorf("id is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries[:s.size()] {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	limit = clampLimit(limit)
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.size()
	if limit > n {
		limit = n
	}
	out := make([]Entry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.next - i + len(s.entries)) % len(s.entries)
		out = append(out, s.entries[idx])
	}
	return out, nil
}

func (s *MemoryStore) size() int {
	if s.full {
		return len(s.entries)
	}
	return s.next
}
