package providers

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrProviderNotFound is returned when an adapter is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate adapter
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Registry manages adapter instances keyed by provider id
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates a new adapter registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register registers an adapter instance
func (r *Registry) Register(adapter Adapter) error {
	if adapter == nil {
		return errors.New("adapter cannot be nil")
	}

	id := adapter.ID()
	if id == "" {
		return errors.New("adapter id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[id]; exists {
		return ErrProviderAlreadyRegistered
	}

	r.adapters[id] = adapter
	return nil
}

// Unregister removes an adapter from the registry
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[id]; !exists {
		return ErrProviderNotFound
	}

	delete(r.adapters, id)
	return nil
}

// Get retrieves an adapter by provider id
func (r *Registry) Get(id string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.adapters[id]
	if !exists {
		return nil, ErrProviderNotFound
	}

	return adapter, nil
}

// List returns all registered provider ids, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Capabilities returns the capability table of all registered adapters
func (r *Registry) Capabilities() map[string]Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table := make(map[string]Capabilities, len(r.adapters))
	for id, adapter := range r.adapters {
		table[id] = adapter.Capabilities()
	}

	return table
}

// Count returns the number of registered adapters
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.adapters)
}

// Builder is a function that creates an adapter instance
type Builder func(config ProviderConfig, logger *zap.Logger) Adapter

// RegistryBuilder helps build a registry with multiple adapters
type RegistryBuilder struct {
	registry *Registry
	builders map[string]Builder
	logger   *zap.Logger
}

// NewRegistryBuilder creates a new registry builder
func NewRegistryBuilder(logger *zap.Logger) *RegistryBuilder {
	return &RegistryBuilder{
		registry: NewRegistry(),
		builders: make(map[string]Builder),
		logger:   logger,
	}
}

// WithBuilder registers an adapter builder under a provider id
func (rb *RegistryBuilder) WithBuilder(id string, builder Builder) *RegistryBuilder {
	rb.builders[id] = builder
	return rb
}

// Build creates every adapter that has a builder. Providers without an
// explicit config get DefaultProviderConfig.
func (rb *RegistryBuilder) Build(configs map[string]ProviderConfig) (*Registry, error) {
	ids := make([]string, 0, len(rb.builders))
	for id := range rb.builders {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		config, ok := configs[id]
		if !ok {
			config = DefaultProviderConfig()
		}

		adapter := rb.builders[id](config, rb.logger.With(zap.String("provider", id)))
		if adapter.ID() != id {
			return nil, fmt.Errorf("builder for %s produced adapter %s", id, adapter.ID())
		}
		if err := rb.registry.Register(adapter); err != nil {
			return nil, fmt.Errorf("failed to register provider %s: %w", id, err)
		}
	}

	return rb.registry, nil
}
