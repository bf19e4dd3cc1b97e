package biometric

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewMemoryStore builds an in-memory template store for tests and dev mode.
func NewMemoryStore() TemplateStore {
	return &memoryStore{templates: make(map[string]Template)}
}

func (s *memoryStore) Save(_ context.Context, tpl Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := tpl
	stored.Canonical = append([]byte(nil), tpl.Canonical...)
	s.templates[tpl.OwnerID] = stored
	return nil
}

func (s *memoryStore) Load(_ context.Context, ownerID string) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.templates[ownerID]
	if !ok {
		return Template{}, ErrTemplateNotFound
	}
	out := tpl
	out.Canonical = append([]byte(nil), tpl.Canonical...)
	return out, nil
}
