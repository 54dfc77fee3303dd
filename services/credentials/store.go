package credentials

import (
	"context"
	"strings"
	"sync"

	"github.com/upb/cognate/models"
)

// Store is a key-value secret store keyed by provider id.
// Writes for unknown provider ids are ignored.
type Store interface {
	// Get returns the stored credential and whether one is present
	Get(ctx context.Context, providerID string) (string, bool, error)

	// Set stores a credential
	Set(ctx context.Context, providerID, value string) error

	// Delete removes a credential; deleting an absent one is not an error
	Delete(ctx context.Context, providerID string) error
}

// SetAll applies a batch of credentials. Values are trimmed, blank values
// delete the stored credential and unknown provider ids are skipped.
func SetAll(ctx context.Context, store Store, values map[string]string) error {
	for _, id := range models.KnownProviders {
		value, ok := values[id]
		if !ok {
			continue
		}

		value = strings.TrimSpace(value)
		if value == "" {
			if err := store.Delete(ctx, id); err != nil {
				return err
			}
			continue
		}
		if err := store.Set(ctx, id, value); err != nil {
			return err
		}
	}
	return nil
}

// GetAll returns every known provider id mapped to its credential, "" when absent
func GetAll(ctx context.Context, store Store) (map[string]string, error) {
	out := make(map[string]string, len(models.KnownProviders))
	for _, id := range models.KnownProviders {
		value, _, err := store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = value
	}
	return out, nil
}

// Mask hides all but the last four characters of a credential
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", 8) + value[len(value)-4:]
}

// MemoryStore keeps credentials in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, providerID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[providerID]
	return value, ok, nil
}

// Set implements Store
func (s *MemoryStore) Set(ctx context.Context, providerID, value string) error {
	if !models.IsKnownProvider(providerID) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[providerID] = value
	return nil
}

// Delete implements Store
func (s *MemoryStore) Delete(ctx context.Context, providerID string) error {
	if !models.IsKnownProvider(providerID) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, providerID)
	return nil
}
