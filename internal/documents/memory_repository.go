package documents

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu      sync.RWMutex
	records map[string]Documents
}

// NewMemoryRepository builds an in-memory documents store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{records: make(map[string]Documents)}
}

func (r *memoryRepository) Save(_ context.Context, docs Documents) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.records[docs.AccountID]; ok {
		docs.CreatedAt = existing.CreatedAt
	} else {
		docs.CreatedAt = now
	}
	docs.UpdatedAt = now
	r.records[docs.AccountID] = docs
	return nil
}

func (r *memoryRepository) FindByAccountID(_ context.Context, accountID string) (Documents, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs, ok := r.records[accountID]
	if !ok {
		return Documents{}, ErrNotFound
	}
	return docs, nil
}

func (r *memoryRepository) ListByStatus(_ context.Context, status Status) ([]Documents, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Documents
	for _, docs := range r.records {
		if docs.Status == status {
			out = append(out, docs)
		}
	}
	return out, nil
}

func (r *memoryRepository) Transition(_ context.Context, accountID string, from, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	docs, ok := r.records[accountID]
	if !ok || docs.Status != from {
		return ErrConflict
	}
	docs.Status = to
	docs.UpdatedAt = time.Now().UTC()
	r.records[accountID] = docs
	return nil
}
