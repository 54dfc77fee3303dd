package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/upb/cognate/services/attachments"
	"github.com/upb/cognate/services/catalog"
	"github.com/upb/cognate/services/dispatch"
)

// Session is the workspace state a client drives: the prompt being edited,
// the provider catalog and the pending attachments.
type Session struct {
	mu     sync.RWMutex
	prompt string

	catalog     *catalog.Catalog
	attachments *attachments.Set
	dispatcher  *dispatch.Dispatcher
	logger      *zap.Logger
}

// New creates a session over its collaborators
func New(cat *catalog.Catalog, set *attachments.Set, dispatcher *dispatch.Dispatcher, logger *zap.Logger) *Session {
	return &Session{
		catalog:     cat,
		attachments: set,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Prompt returns the current prompt text
func (s *Session) Prompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompt
}

// SetPrompt replaces the prompt text
func (s *Session) SetPrompt(text string) {
	s.mu.Lock()
	s.prompt = text
	s.mu.Unlock()
}

// Catalog returns the provider catalog
func (s *Session) Catalog() *catalog.Catalog {
	return s.catalog
}

// Attachments returns the pending attachment set
func (s *Session) Attachments() *attachments.Set {
	return s.attachments
}

// Current returns the latest round, or nil before the first send
func (s *Session) Current() *dispatch.Round {
	return s.dispatcher.Current()
}

// Send dispatches the prompt to the selected providers with the pending
// attachments. The dispatched attachments are removed once the round has
// started; files added while the round was being set up stay pending. An
// empty prompt or selection changes nothing and returns the validation error.
func (s *Session) Send(ctx context.Context) (*dispatch.Round, error) {
	prompt := s.Prompt()
	selected := s.catalog.Selected()
	pending := s.attachments.List()

	round, err := s.dispatcher.Dispatch(ctx, prompt, selected, pending)
	if err != nil {
		s.logger.Debug("send rejected", zap.Error(err))
		return nil, err
	}

	for _, a := range pending {
		s.attachments.Remove(a.ID)
	}
	return round, nil
}
