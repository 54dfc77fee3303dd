package providers

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TempScope owns the temporary files written during one adapter call.
// Release removes every file it created; removal failures are logged only.
type TempScope struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	paths []string
}

// NewTempScope creates a scope writing into dir (os.TempDir when empty)
func NewTempScope(dir string, logger *zap.Logger) *TempScope {
	if dir == "" {
		dir = os.TempDir()
	}
	return &TempScope{dir: dir, logger: logger}
}

// Write stores data in a new temporary file and returns its path.
// The file is tracked for Release even when the write fails.
func (s *TempScope) Write(name string, data []byte) (string, error) {
	pattern := fmt.Sprintf("cognate-%d-*-%s", time.Now().UnixMilli(), filepath.Base(name))
	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	s.mu.Lock()
	s.paths = append(s.paths, f.Name())
	s.mu.Unlock()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

// Release deletes all files written through the scope
func (s *TempScope) Release() {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove temp file",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}
}
