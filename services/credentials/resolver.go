package credentials

import (
	"context"

	"go.uber.org/zap"
)

// Resolver is the read-only credential view used when dispatching
type Resolver struct {
	store  Store
	logger *zap.Logger
}

// NewResolver creates a resolver over store
func NewResolver(store Store, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve returns the credential for providerID. Blank values and lookup
// failures count as absent; failures are logged.
func (r *Resolver) Resolve(ctx context.Context, providerID string) (string, bool) {
	value, ok, err := r.store.Get(ctx, providerID)
	if err != nil {
		r.logger.Error("failed to resolve credential",
			zap.String("provider", providerID),
			zap.Error(err),
		)
		return "", false
	}
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
