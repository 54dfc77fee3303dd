package dispatch

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services"
	"github.com/upb/cognate/services/providers"
)

// AdapterSource looks up the adapter for a provider id
type AdapterSource interface {
	Get(id string) (providers.Adapter, error)
}

// CredentialResolver maps a provider id to its credential
type CredentialResolver interface {
	Resolve(ctx context.Context, providerID string) (string, bool)
}

// HistoryRecorder logs accepted rounds
type HistoryRecorder interface {
	Record(ctx context.Context, text string, providerIDs, attachmentNames []string) error
}

// MetricsRecorder observes rounds and finalized results
type MetricsRecorder interface {
	ObserveRound()
	ObserveResult(providerID string, outcome models.Outcome)
}

// Dispatcher fans a prompt out to the selected providers
type Dispatcher struct {
	adapters AdapterSource
	resolver CredentialResolver
	history  HistoryRecorder
	metrics  MetricsRecorder
	logger   *zap.Logger

	mu      sync.RWMutex
	current *Round
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(adapters AdapterSource, resolver CredentialResolver, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		adapters: adapters,
		resolver: resolver,
		logger:   logger,
	}
}

// WithHistory records every accepted round through recorder
func (d *Dispatcher) WithHistory(recorder HistoryRecorder) *Dispatcher {
	d.history = recorder
	return d
}

// WithMetrics reports rounds and results to recorder
func (d *Dispatcher) WithMetrics(recorder MetricsRecorder) *Dispatcher {
	d.metrics = recorder
	return d
}

// Current returns the most recently started round, or nil
func (d *Dispatcher) Current() *Round {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// Dispatch starts a round for prompt over the given providers. The returned
// round already holds one pending result per provider; each branch finalizes
// its own entry in the background. An empty prompt or selection is rejected
// without any state change.
func (d *Dispatcher) Dispatch(ctx context.Context, prompt string, specs []models.ProviderSpec, attachments []models.Attachment) (*Round, error) {
	if prompt == "" {
		return nil, services.ErrEmptyPrompt
	}

	specs = uniqueSpecs(specs)
	if len(specs) == 0 {
		return nil, services.ErrNoProvidersSelected
	}

	ids := make([]string, len(specs))
	for i, spec := range specs {
		ids[i] = spec.ID
	}
	names := models.AttachmentNames(attachments)

	round := newRound(prompt, ids, names)

	d.mu.Lock()
	d.current = round
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.ObserveRound()
	}

	d.logger.Info("dispatch round started",
		zap.String("round_id", round.ID.String()),
		zap.Strings("providers", ids),
		zap.Int("attachments", len(attachments)),
	)

	if d.history != nil {
		if err := d.history.Record(ctx, prompt, ids, names); err != nil {
			d.logger.Warn("failed to record prompt history",
				zap.String("round_id", round.ID.String()),
				zap.Error(err),
			)
		}
	}

	// Branches outlive the caller's request; there is no cancellation.
	branchCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	for _, spec := range specs {
		g.Go(func() error {
			round.finalize(spec.ID, d.SendPrompt(branchCtx, spec, prompt, attachments))
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		d.logger.Info("dispatch round completed", zap.String("round_id", round.ID.String()))
	}()

	return round, nil
}

// SendPrompt calls a single provider and always returns a terminal outcome.
// Unsupported providers and missing credentials fail before any network call.
func (d *Dispatcher) SendPrompt(ctx context.Context, spec models.ProviderSpec, prompt string, attachments []models.Attachment) models.Outcome {
	outcome := d.send(ctx, spec, prompt, attachments)
	if d.metrics != nil {
		d.metrics.ObserveResult(spec.ID, outcome)
	}
	return outcome
}

// send recovers panics from the adapter lookup and the resolver so the
// provider still gets a terminal outcome
func (d *Dispatcher) send(ctx context.Context, spec models.ProviderSpec, prompt string, attachments []models.Attachment) (outcome models.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("provider branch panicked",
				zap.String("provider", spec.ID),
				zap.Any("panic", r))
			outcome = models.ErrorOutcome(providers.FallbackErrorMessage)
		}
	}()

	adapter, err := d.adapters.Get(spec.ID)
	if err != nil {
		d.logger.Warn("provider not supported",
			zap.String("provider", spec.ID),
			zap.Error(services.ErrProviderNotSupported))
		return models.ErrorOutcome(UnsupportedProviderMessage(spec.ID))
	}

	apiKey, ok := d.resolver.Resolve(ctx, spec.ID)
	if !ok {
		d.logger.Warn("provider credential not set",
			zap.String("provider", spec.ID),
			zap.Error(services.ErrCredentialNotSet))
		return models.ErrorOutcome(MissingCredentialMessage(adapter.Name()))
	}

	return providers.Call(ctx, adapter, &providers.Request{
		Spec:        spec,
		Prompt:      prompt,
		APIKey:      apiKey,
		Attachments: attachments,
	}, d.logger)
}

// MissingCredentialMessage is reported when a provider has no credential
func MissingCredentialMessage(name string) string {
	return fmt.Sprintf("%s API key is not set.", name)
}

// UnsupportedProviderMessage is reported for ids without an adapter
func UnsupportedProviderMessage(id string) string {
	return fmt.Sprintf("Provider with ID %q is not supported.", id)
}

// uniqueSpecs drops repeated provider ids, keeping the first occurrence
func uniqueSpecs(specs []models.ProviderSpec) []models.ProviderSpec {
	seen := make(map[string]bool, len(specs))
	out := make([]models.ProviderSpec, 0, len(specs))
	for _, spec := range specs {
		if seen[spec.ID] {
			continue
		}
		seen[spec.ID] = true
		out = append(out, spec)
	}
	return out
}
