package models

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// PDFMimeType is the only accepted attachment document type
	PDFMimeType = "application/pdf"

	// PDFExtension is the accepted attachment filename suffix
	PDFExtension = ".pdf"
)

// Attachment is a user-supplied document pending delivery to providers.
// Data must not be mutated once the attachment is created.
type Attachment struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Type string    `json:"type"`
	Size int64     `json:"size"`
	Data []byte    `json:"-"`
}

// NewAttachment creates an attachment, defaulting an empty type to PDF
func NewAttachment(name, mimeType string, data []byte) Attachment {
	if mimeType == "" {
		mimeType = PDFMimeType
	}
	return Attachment{
		ID:   uuid.New(),
		Name: name,
		Type: mimeType,
		Size: int64(len(data)),
		Data: data,
	}
}

// IsPDF reports whether a file qualifies as a PDF by declared mime type
// or by filename suffix; either signal is sufficient.
func IsPDF(name, mimeType string) bool {
	return mimeType == PDFMimeType || strings.HasSuffix(strings.ToLower(name), PDFExtension)
}

// IsPDF reports whether the attachment qualifies as a PDF
func (a Attachment) IsPDF() bool {
	return IsPDF(a.Name, a.Type)
}

// AttachmentNames returns the names of the given attachments in order
func AttachmentNames(attachments []Attachment) []string {
	names := make([]string, 0, len(attachments))
	for _, a := range attachments {
		names = append(names, a.Name)
	}
	return names
}
