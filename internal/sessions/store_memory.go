package sessions

import (
	"context"
	"sync"

	"resume-wizard/internal/resume"
)

// MemoryStore keeps documents in process memory. Used in development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]resume.Document
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]resume.Document)}
}

func (s *MemoryStore) Load(ctx context.Context, id string) (resume.Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return resume.Document{}, false, unavailable("load", err)
	}
	id, err := validateID(id)
	if err != nil {
		return resume.Document{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.data[id]
	if !ok {
		return resume.Document{}, false, nil
	}
	return doc.Clone(), true, nil
}

func (s *MemoryStore) Save(ctx context.Context, id string, doc resume.Document) error {
	if err := ctx.Err(); err != nil {
		return unavailable("save", err)
	}
	id, err := validateID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = doc.Clone()
	return nil
}

var _ Store = (*MemoryStore)(nil)
