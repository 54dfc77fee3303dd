package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/upb/cognate/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// HistoryRepository handles prompt history persistence
type HistoryRepository interface {
	// List returns up to limit entries, newest first
	List(ctx context.Context, limit int) ([]*models.HistoryEntry, error)

	// Insert stores an entry, then keeps only the newest keep entries
	Insert(ctx context.Context, entry *models.HistoryEntry, keep int) error

	// Delete removes an entry; deleting a missing entry is not an error
	Delete(ctx context.Context, id uuid.UUID) error

	// Clear removes every entry
	Clear(ctx context.Context) error
}

// Repositories holds all repository instances
type Repositories struct {
	History HistoryRepository
}
