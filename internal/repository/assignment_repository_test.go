package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidworks/collab-api/internal/models"
)

func TestAssignmentRepositoryListByEntity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "entity_id", "section_id", "user_id", "permission", "created_at", "updated_at"}).
		AddRow("assign-1", "entity-1", "s1", "user-1", "EDIT", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, entity_id, section_id, user_id, permission, created_at, updated_at").
		WithArgs("entity-1").
		WillReturnRows(rows)

	assignments, err := repo.ListByEntity(context.Background(), "entity-1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, models.PermissionEdit, assignments[0].Permission)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO section_assignments").
		WithArgs(sqlmock.AnyArg(), "entity-1", "s1", "user-1", "READ_AND_COMMENT", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Upsert(context.Background(), &models.SectionAssignment{
		EntityID:   "entity-1",
		SectionID:  "s1",
		UserID:     "user-1",
		Permission: models.PermissionReadComment,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("DELETE FROM section_assignments").
		WithArgs("entity-1", "s1", "user-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "entity-1", "s1", "user-9")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
