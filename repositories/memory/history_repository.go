package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/repositories"
)

// HistoryRepository keeps prompt history in process memory
type HistoryRepository struct {
	mu      sync.RWMutex
	entries []*models.HistoryEntry
}

// NewHistoryRepository creates an empty in-memory history repository
func NewHistoryRepository() repositories.HistoryRepository {
	return &HistoryRepository{}
}

// List implements repositories.HistoryRepository
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.entries)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]*models.HistoryEntry, n)
	for i := 0; i < n; i++ {
		entry := *r.entries[i]
		out[i] = &entry
	}
	return out, nil
}

// Insert implements repositories.HistoryRepository
func (r *HistoryRepository) Insert(ctx context.Context, entry *models.HistoryEntry, keep int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *entry
	r.entries = append([]*models.HistoryEntry{&stored}, r.entries...)
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].CreatedAt.After(r.entries[j].CreatedAt)
	})

	if keep > 0 && len(r.entries) > keep {
		r.entries = r.entries[:keep]
	}
	return nil
}

// Delete implements repositories.HistoryRepository
func (r *HistoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.entries {
		if entry.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

// Clear implements repositories.HistoryRepository
func (r *HistoryRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
	return nil
}
