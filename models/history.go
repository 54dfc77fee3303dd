package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxHistoryEntries is how many prompt history entries are retained
const MaxHistoryEntries = 500

// HistoryEntry records a prompt that was sent
type HistoryEntry struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Text            string    `json:"text" db:"text"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	Providers       []string  `json:"providers" db:"providers"`
	AttachmentNames []string  `json:"attachment_names,omitempty" db:"attachment_names"`
}

// TableName returns the table name for the HistoryEntry model
func (HistoryEntry) TableName() string {
	return "prompt_history"
}

// NewHistoryEntry creates a history entry with a generated ID and timestamp
func NewHistoryEntry(text string, providers, attachmentNames []string) *HistoryEntry {
	return &HistoryEntry{
		ID:              uuid.New(),
		Text:            text,
		CreatedAt:       time.Now(),
		Providers:       providers,
		AttachmentNames: attachmentNames,
	}
}
