package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/repositories"
	"github.com/upb/cognate/services"
)

// Service manages the prompt history log
type Service struct {
	repo   repositories.HistoryRepository
	logger *zap.Logger
	limit  int

	// background recording
	entries    chan *models.HistoryEntry
	bufferSize int
	wg         sync.WaitGroup
	started    bool
	mu         sync.Mutex
}

// Config holds configuration for the history Service
type Config struct {
	Limit      int // Entries retained, newest first
	BufferSize int // Size of the background record buffer
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Limit:      models.MaxHistoryEntries,
		BufferSize: 256,
	}
}

// NewService creates a new history service
func NewService(repo repositories.HistoryRepository, logger *zap.Logger, config Config) *Service {
	if config.Limit <= 0 {
		config.Limit = models.MaxHistoryEntries
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	return &Service{
		repo:       repo,
		logger:     logger,
		limit:      config.Limit,
		bufferSize: config.BufferSize,
	}
}

// List returns the retained entries, newest first
func (s *Service) List(ctx context.Context) ([]*models.HistoryEntry, error) {
	entries, err := s.repo.List(ctx, s.limit)
	if err != nil {
		return nil, services.WrapInternal("history store failed", err)
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}
	return entries, nil
}

// Add stores a new entry and prunes the log to the newest entries
func (s *Service) Add(ctx context.Context, text string, providers, attachmentNames []string) (*models.HistoryEntry, error) {
	if text == "" {
		return nil, services.ErrEmptyPrompt
	}

	entry := models.NewHistoryEntry(text, providers, attachmentNames)
	if err := s.repo.Insert(ctx, entry, s.limit); err != nil {
		return nil, services.WrapInternal("history store failed", err)
	}

	s.logger.Debug("history entry added",
		zap.String("id", entry.ID.String()),
		zap.Strings("providers", providers))

	return entry, nil
}

// Delete removes an entry; a missing entry is not an error
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return services.WrapInternal("history store failed", err)
	}
	return nil
}

// Clear removes every entry
func (s *Service) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return services.WrapInternal("history store failed", err)
	}
	s.logger.Info("history cleared")
	return nil
}

// Start starts the background recorder
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("history recorder already started")
	}

	s.entries = make(chan *models.HistoryEntry, s.bufferSize)
	s.wg.Add(1)
	go s.worker()

	s.started = true
	s.logger.Info("started history recorder", zap.Int("buffer_size", s.bufferSize))
	return nil
}

// Stop drains pending entries and stops the background recorder
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("history recorder not started")
	}
	s.started = false
	close(s.entries)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("history recorder stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("history recorder stop timeout after %v", timeout)
	}
}

// Record logs a dispatched prompt. When the recorder is running the entry is
// queued and written in the background; otherwise it is written inline.
func (s *Service) Record(ctx context.Context, text string, providers, attachmentNames []string) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		_, err := s.Add(ctx, text, providers, attachmentNames)
		return err
	}
	defer s.mu.Unlock()

	entry := models.NewHistoryEntry(text, providers, attachmentNames)
	select {
	case s.entries <- entry:
		return nil
	default:
		s.logger.Warn("history buffer full, dropping entry",
			zap.String("id", entry.ID.String()))
		return fmt.Errorf("history buffer full")
	}
}

// worker writes queued entries in arrival order
func (s *Service) worker() {
	defer s.wg.Done()

	for entry := range s.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.repo.Insert(ctx, entry, s.limit); err != nil {
			s.logger.Error("failed to record history entry",
				zap.String("id", entry.ID.String()),
				zap.Error(err))
		}
		cancel()
	}
}
