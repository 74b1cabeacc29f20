package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkan-dev/timetable-api/internal/models"
)

func TestTimetableRepositorySaveWithEntries(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO timetable_sets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO timetable_entries").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	set := &models.TimetableSet{Name: "Week 1", OwnerID: "u1", Periods: 8, LunchPeriod: 4, Source: models.TimetableSourceExact, Valid: true}
	entries := []models.TimetableEntry{
		{Day: "Monday", Period: 0, Label: "Algorithms"},
		{Day: "Monday", Period: 1, Label: "Physics"},
	}
	err := repo.SaveWithEntries(context.Background(), set, entries)
	require.NoError(t, err)
	assert.NotEmpty(t, set.ID)
	assert.Equal(t, set.ID, entries[0].SetID)
	assert.NotEmpty(t, entries[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositorySaveEmptyGrid(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO timetable_sets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	set := &models.TimetableSet{Name: "Empty", OwnerID: "u1", Periods: 8, Source: models.TimetableSourceGreedy}
	require.NoError(t, repo.SaveWithEntries(context.Background(), set, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "owner_id", "periods", "lunch_period", "source", "valid", "score", "solve_millis", "created_at", "updated_at"}).
		AddRow("s1", "Week 1", "u1", 8, 4, "exact", true, 0.92, int64(120), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, owner_id, periods, lunch_period, source, valid, score, solve_millis, created_at, updated_at FROM timetable_sets WHERE 1=1 AND owner_id = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("u1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetable_sets WHERE 1=1 AND owner_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	sets, total, err := repo.List(context.Background(), models.TimetableSetFilter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Len(t, sets, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListEntries(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "set_id", "day", "period", "label"}).
		AddRow("e1", "s1", "Monday", 0, "Algorithms").
		AddRow("e2", "s1", "Monday", 4, "Lunch")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, set_id, day, period, label FROM timetable_entries WHERE set_id = $1 ORDER BY day ASC, period ASC")).
		WithArgs("s1").
		WillReturnRows(rows)

	entries, err := repo.ListEntries(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Algorithms", entries[0].Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE set_id = $1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_sets WHERE id = $1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
