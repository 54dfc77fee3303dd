package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/upb/cognate/models"
)

// FileStore persists credentials as an encrypted JSON map in a single file.
// Every write rewrites the file atomically.
type FileStore struct {
	path   string
	cipher *Cipher

	mu sync.Mutex
}

// NewFileStore creates a store backed by path, encrypted with passphrase
func NewFileStore(path, passphrase string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("credentials file path cannot be empty")
	}

	cipher, err := NewCipher(passphrase)
	if err != nil {
		return nil, err
	}

	return &FileStore{path: path, cipher: cipher}, nil
}

// Get implements Store
func (s *FileStore) Get(ctx context.Context, providerID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}

	value, ok := values[providerID]
	return value, ok, nil
}

// Set implements Store
func (s *FileStore) Set(ctx context.Context, providerID, value string) error {
	if !models.IsKnownProvider(providerID) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}

	values[providerID] = value
	return s.save(values)
}

// Delete implements Store
func (s *FileStore) Delete(ctx context.Context, providerID string) error {
	if !models.IsKnownProvider(providerID) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[providerID]; !ok {
		return nil
	}

	delete(values, providerID)
	return s.save(values)
}

func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	plaintext, err := s.cipher.Decrypt(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("credentials file: %w", err)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	plaintext, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	encoded, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp credentials file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(encoded); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace credentials file: %w", err)
	}
	return nil
}
