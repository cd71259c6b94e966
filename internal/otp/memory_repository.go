package otp

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu      sync.RWMutex
	records map[string]Record // keyed by public key hash
}

// NewMemoryRepository builds an in-memory OTP store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{records: make(map[string]Record)}
}

func (r *memoryRepository) Save(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.PublicKeyHash] = rec
	return nil
}

func (r *memoryRepository) FindByPublicKeyHash(_ context.Context, hash string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[hash]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *memoryRepository) FindByPhone(_ context.Context, phone string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.PhoneNumber == phone {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (r *memoryRepository) ListByStatus(_ context.Context, status Status) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Record
	for _, rec := range r.records {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memoryRepository) Transition(_ context.Context, publicKeyHash string, from, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[publicKeyHash]
	if !ok || rec.Status != from {
		return ErrConflict
	}
	rec.Status = to
	rec.UpdatedAt = time.Now().UTC()
	r.records[publicKeyHash] = rec
	return nil
}

func (r *memoryRepository) IncrementAttempts(_ context.Context, publicKeyHash string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[publicKeyHash]
	if !ok {
		return 0, ErrNotFound
	}
	rec.Attempts++
	r.records[publicKeyHash] = rec
	return rec.Attempts, nil
}
