package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/repositories"
)

// HistoryRepository implements the repositories.HistoryRepository interface
type HistoryRepository struct {
	db     *DB
	tm     repositories.TransactionManager
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB, logger *zap.Logger) repositories.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		tm:     NewTransactionManager(db, logger),
		logger: logger,
	}
}

// List retrieves up to limit entries, newest first
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	query := `
		SELECT id, text, created_at, providers, attachment_names
		FROM prompt_history
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		entry := &models.HistoryEntry{}
		if err := rows.Scan(
			&entry.ID,
			&entry.Text,
			&entry.CreatedAt,
			pq.Array(&entry.Providers),
			pq.Array(&entry.AttachmentNames),
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}

// Insert stores an entry and prunes everything beyond the newest keep entries
// in the same transaction
func (r *HistoryRepository) Insert(ctx context.Context, entry *models.HistoryEntry, keep int) error {
	insert := `
		INSERT INTO prompt_history (id, text, created_at, providers, attachment_names)
		VALUES ($1, $2, $3, $4, $5)
	`
	prune := `
		DELETE FROM prompt_history
		WHERE id NOT IN (
			SELECT id FROM prompt_history ORDER BY created_at DESC LIMIT $1
		)
	`

	err := r.tm.InTransaction(ctx, func(ctx context.Context, tx repositories.Transaction) error {
		executor := GetExecutor(ctx, r.db)

		if _, err := executor.ExecContext(ctx, insert,
			entry.ID,
			entry.Text,
			entry.CreatedAt,
			pq.Array(entry.Providers),
			pq.Array(entry.AttachmentNames),
		); err != nil {
			return fmt.Errorf("failed to insert history entry: %w", err)
		}

		if keep > 0 {
			if _, err := executor.ExecContext(ctx, prune, keep); err != nil {
				return fmt.Errorf("failed to prune history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("history entry inserted", zap.String("id", entry.ID.String()))
	return nil
}

// Delete removes an entry by ID
func (r *HistoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM prompt_history WHERE id = $1`

	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return nil
}

// Clear removes every entry
func (r *HistoryRepository) Clear(ctx context.Context) error {
	query := `DELETE FROM prompt_history`

	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
