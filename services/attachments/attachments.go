package attachments

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services"
)

// File is a user supplied file blob
type File struct {
	Name string
	Type string
	Size int64
	Open func() (io.ReadCloser, error)
}

// BytesFile wraps an in-memory payload as a File
func BytesFile(name, mimeType string, data []byte) File {
	return File{
		Name: name,
		Type: mimeType,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// MultipartFile wraps an uploaded multipart file header as a File
func MultipartFile(header *multipart.FileHeader) File {
	return File{
		Name: header.Filename,
		Type: header.Header.Get("Content-Type"),
		Size: header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

// Set holds the attachments pending for the next dispatch round
type Set struct {
	mu     sync.RWMutex
	items  []models.Attachment
	logger *zap.Logger
}

// NewSet creates an empty attachment set
func NewSet(logger *zap.Logger) *Set {
	return &Set{logger: logger}
}

// Add reads every PDF among files and appends it to the set. Other files
// are skipped silently. A file that cannot be read is left out; the files
// that were read are still appended and the read errors are returned joined.
func (s *Set) Add(files []File) ([]models.Attachment, error) {
	var (
		added []models.Attachment
		errs  []error
	)

	for _, f := range files {
		if !models.IsPDF(f.Name, f.Type) {
			s.logger.Debug("skipping non-pdf attachment", zap.String("name", f.Name), zap.String("type", f.Type))
			continue
		}

		data, err := readAll(f)
		if err != nil {
			s.logger.Warn("failed to read attachment", zap.String("name", f.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w: %w", f.Name, services.ErrAttachmentRead, err))
			continue
		}

		added = append(added, models.NewAttachment(f.Name, f.Type, data))
	}

	if len(added) > 0 {
		s.mu.Lock()
		s.items = append(s.items, added...)
		s.mu.Unlock()
	}

	return added, errors.Join(errs...)
}

func readAll(f File) ([]byte, error) {
	if f.Open == nil {
		return nil, errors.New("file has no content")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Remove deletes the attachment with the given id; unknown ids are ignored
func (s *Set) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.items {
		if a.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return
		}
	}
}

// Clear empties the set
func (s *Set) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// List returns a snapshot of the pending attachments in insertion order
func (s *Set) List() []models.Attachment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Attachment, len(s.items))
	copy(out, s.items)
	return out
}

// Names returns the names of the pending attachments
func (s *Set) Names() []string {
	return models.AttachmentNames(s.List())
}

// Len returns the number of pending attachments
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
