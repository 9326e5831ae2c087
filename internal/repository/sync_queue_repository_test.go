package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidworks/collab-api/internal/models"
)

func TestSyncQueueRepositoryEnqueue(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSyncQueueRepository(db)

	mock.ExpectQuery("INSERT INTO sync_queue").
		WithArgs(models.SyncActionSectionUpdate, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := repo.Enqueue(context.Background(), models.SyncActionSectionUpdate, models.SectionUpdatePayload{
		EntityID:  "entity-1",
		SectionID: "s1",
		Content:   "draft",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncQueueRepositoryListPendingOrdered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSyncQueueRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "action_type", "payload", "created_at", "status", "attempts", "last_error"}).
		AddRow(1, "section_update", []byte(`{}`), now.Add(-2*time.Minute), "failed", 2, "timeout").
		AddRow(2, "add_comment", []byte(`{}`), now.Add(-time.Minute), "pending", 0, nil)
	mock.ExpectQuery("SELECT id, action_type, payload, created_at, status, attempts, last_error").
		WillReturnRows(rows)

	items, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, 2, items[0].Attempts)
	require.NotNil(t, items[0].LastError)
	assert.Equal(t, "timeout", *items[0].LastError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncQueueRepositoryCompleteRemoves(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSyncQueueRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sync_queue WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Complete(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncQueueRepositoryFailKeepsItem(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSyncQueueRepository(db)

	mock.ExpectExec("UPDATE sync_queue SET status = 'failed', attempts = attempts \\+ 1, last_error = \\$2 WHERE id = \\$1").
		WithArgs(int64(4), "remote unavailable").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Fail(context.Background(), 4, errors.New("remote unavailable")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncQueueRepositoryCountPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSyncQueueRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM sync_queue WHERE status IN ('pending', 'failed')`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
