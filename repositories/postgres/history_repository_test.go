package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/cognate/models"
)

func newMockRepository(t *testing.T) (*HistoryRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := Wrap(sqlDB, zap.NewNop())
	repo := NewHistoryRepository(db, zap.NewNop()).(*HistoryRepository)
	return repo, mock
}

func TestHistoryRepository_List(t *testing.T) {
	repo, mock := newMockRepository(t)

	id := uuid.New()
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "text", "created_at", "providers", "attachment_names"}).
		AddRow(id.String(), "Summarize", createdAt, "{openai,google}", "{report.pdf}")

	mock.ExpectQuery("SELECT id, text, created_at, providers, attachment_names FROM prompt_history").
		WithArgs(models.MaxHistoryEntries).
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), models.MaxHistoryEntries)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "Summarize", entries[0].Text)
	assert.Equal(t, createdAt, entries[0].CreatedAt)
	assert.Equal(t, []string{"openai", "google"}, entries[0].Providers)
	assert.Equal(t, []string{"report.pdf"}, entries[0].AttachmentNames)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_List_QueryError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT id, text").WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list history")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_Insert_PrunesInTransaction(t *testing.T) {
	repo, mock := newMockRepository(t)
	entry := models.NewHistoryEntry("hello", []string{"openai"}, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO prompt_history").
		WithArgs(entry.ID.String(), entry.Text, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM prompt_history WHERE id NOT IN").
		WithArgs(models.MaxHistoryEntries).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Insert(context.Background(), entry, models.MaxHistoryEntries)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_Insert_RollsBackOnPruneFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	entry := models.NewHistoryEntry("hello", []string{"openai"}, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO prompt_history").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM prompt_history WHERE id NOT IN").
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := repo.Insert(context.Background(), entry, models.MaxHistoryEntries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to prune history")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_Delete(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM prompt_history WHERE id = \\$1").
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_Clear(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("DELETE FROM prompt_history").
		WillReturnResult(sqlmock.NewResult(0, 12))

	require.NoError(t, repo.Clear(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
