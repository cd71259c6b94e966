package kyc

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu      sync.RWMutex
	records map[string]PersonalInfo
}

// NewMemoryRepository builds an in-memory personal-info store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{records: make(map[string]PersonalInfo)}
}

func (r *memoryRepository) Save(_ context.Context, info PersonalInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.records[info.AccountID]; ok {
		info.CreatedAt = existing.CreatedAt
	} else {
		info.CreatedAt = now
	}
	info.UpdatedAt = now
	r.records[info.AccountID] = info
	return nil
}

func (r *memoryRepository) FindByAccountID(_ context.Context, accountID string) (PersonalInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.records[accountID]
	if !ok {
		return PersonalInfo{}, ErrNotFound
	}
	return info, nil
}

func (r *memoryRepository) FindByDocumentUniqueID(_ context.Context, documentID string) ([]PersonalInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []PersonalInfo
	for _, info := range r.records {
		if info.DocumentUniqueID == documentID {
			out = append(out, info)
		}
	}
	return out, nil
}

func (r *memoryRepository) ListByStatus(_ context.Context, status Status) ([]PersonalInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []PersonalInfo
	for _, info := range r.records {
		if info.Status == status {
			out = append(out, info)
		}
	}
	return out, nil
}

func (r *memoryRepository) UpdateDecision(_ context.Context, accountID string, from, to Status, rejectionReason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.records[accountID]
	if !ok || info.Status != from {
		return ErrConflict
	}
	info.Status = to
	info.RejectionReason = rejectionReason
	info.UpdatedAt = time.Now().UTC()
	r.records[accountID] = info
	return nil
}
