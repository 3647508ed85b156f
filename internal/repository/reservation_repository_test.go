package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation/internal/model"
)

var jst = time.FixedZone("JST", 9*3600)

func setupMockReservationRepo(t *testing.T) (*ReservationRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewReservationRepo(db, jst), mock
}

func at(h, m int) time.Time {
	return time.Date(2025, 10, 24, h, m, 0, 0, jst)
}

var reservationCols = []string{"id", "room_id", "owner", "start_at", "end_at"}

func TestReservationRepo_WithRoomCommitsInsert(t *testing.T) {
	repo, mock := setupMockReservationRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM rooms WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery(`SELECT id, room_id, owner, start_at, end_at FROM reservations\s+WHERE room_id = \? AND start_at < \? AND end_at > \?`).
		WithArgs(uint64(2), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO reservations (room_id, owner, start_at, end_at) VALUES (?, ?, ?, ?)`)).
		WithArgs(uint64(2), "alice", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectCommit()

	res := &model.Reservation{Owner: "alice", Start: at(10, 0), End: at(11, 0)}
	err := repo.WithRoom(context.Background(), 2, func(tx RoomTx) error {
		existing, err := tx.Intersecting(context.Background(), at(10, 0), at(11, 0))
		if err != nil {
			return err
		}
		assert.Empty(t, existing)
		return tx.Insert(context.Background(), res)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(41), res.ID)
	assert.Equal(t, uint64(2), res.RoomID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_WithRoomRollsBackOnError(t *testing.T) {
	repo, mock := setupMockReservationRepo(t)
	boom := errors.New("conflict")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM rooms WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.WithRoom(context.Background(), 1, func(tx RoomTx) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_WithRoomUnknownRoom(t *testing.T) {
	repo, mock := setupMockReservationRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM rooms WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	called := false
	err := repo.WithRoom(context.Background(), 99, func(tx RoomTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_DeleteMissingRow(t *testing.T) {
	repo, mock := setupMockReservationRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM rooms WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM reservations WHERE id = ? AND room_id = ?`)).
		WithArgs(uint64(5), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.WithRoom(context.Background(), 1, func(tx RoomTx) error {
		return tx.Delete(context.Background(), 5)
	})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_Get(t *testing.T) {
	repo, mock := setupMockReservationRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, room_id, owner, start_at, end_at FROM reservations WHERE id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(7, 3, "bob", at(9, 0).UTC(), at(9, 30).UTC()))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, room_id, owner, start_at, end_at FROM reservations WHERE id = ?`)).
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows(reservationCols))

	res, err := repo.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "bob", res.Owner)
	assert.Equal(t, uint64(3), res.RoomID)
	assert.Equal(t, jst, res.Start.Location())
	assert.True(t, res.Start.Equal(at(9, 0)))

	_, err = repo.Get(context.Background(), 8)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_ByOwnerWindow(t *testing.T) {
	repo, mock := setupMockReservationRepo(t)

	mock.ExpectQuery(`FROM reservations\s+WHERE owner = \?\s+ORDER BY`).
		WithArgs("carol").
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(1, 1, "carol", at(9, 0), at(10, 0)).
			AddRow(2, 2, "carol", at(13, 0), at(14, 0)))
	mock.ExpectQuery(`FROM reservations\s+WHERE owner = \? AND start_at >= \? AND start_at < \?`).
		WithArgs("carol", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(reservationCols))

	all, err := repo.ByOwner(context.Background(), "carol", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	day, err := repo.ByOwner(context.Background(), "carol", at(0, 0), at(0, 0).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, day)
	assert.NotNil(t, day)
	require.NoError(t, mock.ExpectationsWereMet())
}
