package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation/internal/model"
)

func TestRoomRepo_Sync(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRoomRepo(db)

	roomCols := []string{"id", "name", "capacity"}
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, capacity FROM rooms ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(roomCols).
			AddRow(1, "Room A", 4).
			AddRow(2, "Room B", 6).
			AddRow(3, "Old Room", 10))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE rooms SET capacity = ? WHERE id = ?`)).
		WithArgs(8, uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO rooms (name, capacity) VALUES (?, ?)`)).
		WithArgs("Room C", 12).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM rooms WHERE id = ?`)).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, capacity FROM rooms ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(roomCols).
			AddRow(1, "Room A", 4).
			AddRow(2, "Room B", 8).
			AddRow(4, "Room C", 12))

	rooms, err := repo.Sync(context.Background(), []model.Room{
		{Name: "Room A", Capacity: 4},
		{Name: "Room B", Capacity: 8},
		{Name: "Room C", Capacity: 12},
	})
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, model.Room{ID: 4, Name: "Room C", Capacity: 12}, rooms[2])
	require.NoError(t, mock.ExpectationsWereMet())
}
