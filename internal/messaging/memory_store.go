package messaging

import (
	"context"
	"strings"
	"sync"
)

// InMemoryStore keeps the message log in process memory. It backs mock mode
// and tests; semantics match the Postgres store.
type InMemoryStore struct {
	mu       sync.RWMutex
	messages []*Message
}

// NewInMemoryStore creates an empty in-memory log.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append writes one entry.
func (s *InMemoryStore) Append(ctx context.Context, msg *Message) (*Message, error) {
	stamped := prepare(msg)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, stamped)

	copied := *stamped
	return &copied, nil
}

// List returns entries newest first.
func (s *InMemoryStore) List(ctx context.Context, limit int, search string) ([]*Message, error) {
	limit = clampLimit(limit)
	needle := strings.ToLower(search)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Message, 0, limit)
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := s.messages[i]
		if needle != "" && !strings.Contains(strings.ToLower(m.Body), needle) {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}
