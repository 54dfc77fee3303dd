package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/upb/cognate/models"
)

// Round is one fan-out of a prompt to the selected providers. It owns its
// results; a later round never touches an earlier round's entries.
type Round struct {
	ID              uuid.UUID `json:"id"`
	Prompt          string    `json:"prompt"`
	StartedAt       time.Time `json:"started_at"`
	AttachmentNames []string  `json:"attachment_names"`

	mu      sync.RWMutex
	order   []string
	results map[string]models.Result
	pending int

	updates chan models.Result
	done    chan struct{}
}

func newRound(prompt string, providerIDs []string, attachmentNames []string) *Round {
	r := &Round{
		ID:              uuid.New(),
		Prompt:          prompt,
		StartedAt:       time.Now(),
		AttachmentNames: attachmentNames,
		order:           providerIDs,
		results:         make(map[string]models.Result, len(providerIDs)),
		pending:         len(providerIDs),
		updates:         make(chan models.Result, len(providerIDs)),
		done:            make(chan struct{}),
	}
	for _, id := range providerIDs {
		r.results[id] = models.NewPendingResult(id)
	}
	return r
}

// ProviderIDs returns the providers of the round in selection order
func (r *Round) ProviderIDs() []string {
	return append([]string(nil), r.order...)
}

// Snapshot returns the current results in selection order
func (r *Round) Snapshot() []models.Result {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Result, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.results[id])
	}
	return out
}

// Result returns the current result for a provider
func (r *Round) Result(providerID string) (models.Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.results[providerID]
	return res, ok
}

// Pending returns how many providers have not finalized yet
func (r *Round) Pending() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pending
}

// Updates delivers each finalized result once, in completion order. The
// channel is closed when the round completes.
func (r *Round) Updates() <-chan models.Result {
	return r.updates
}

// Done is closed once every provider has finalized
func (r *Round) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the round completes or ctx is done
func (r *Round) Wait(ctx context.Context) ([]models.Result, error) {
	select {
	case <-r.done:
		return r.Snapshot(), nil
	case <-ctx.Done():
		return r.Snapshot(), ctx.Err()
	}
}

// finalize merges an outcome into the entry for providerID. Only the first
// finalization of an entry takes effect.
func (r *Round) finalize(providerID string, outcome models.Outcome) {
	r.mu.Lock()
	current, ok := r.results[providerID]
	if !ok || current.IsTerminal() {
		r.mu.Unlock()
		return
	}

	updated := current.Apply(outcome)
	r.results[providerID] = updated
	r.pending--

	// updates has room for every provider, so the send never blocks
	r.updates <- updated
	if r.pending == 0 {
		close(r.updates)
		close(r.done)
	}
	r.mu.Unlock()
}
