package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// ReservationRepo is the MySQL implementation of ReservationStore.
// start_at and end_at are DATETIME columns holding civil wall-clock
// values in the configured zone; the driver is opened with the same
// location so scanned values carry the zone offset back.
type ReservationRepo struct {
	db  *sql.DB
	loc *time.Location
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB, loc *time.Location) *ReservationRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &ReservationRepo{db: db, loc: loc}
}

const reservationColumns = `id, room_id, owner, start_at, end_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ReservationRepo) scan(row rowScanner) (model.Reservation, error) {
	var res model.Reservation
	if err := row.Scan(&res.ID, &res.RoomID, &res.Owner, &res.Start, &res.End); err != nil {
		return res, err
	}
	res.Start = res.Start.In(r.loc)
	res.End = res.End.In(r.loc)
	return res, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *ReservationRepo) list(ctx context.Context, q queryer, query string, args ...any) ([]model.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		res, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// WithRoom opens a transaction, takes a row lock on the room and runs fn.
// The row lock serialises writers of the same room across processes, in
// addition to whatever lock the caller already holds.
func (r *ReservationRepo) WithRoom(ctx context.Context, roomID uint64, fn func(RoomTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var id uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, roomID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoomNotFound
	}
	if err != nil {
		return err
	}

	if err := fn(&sqlRoomTx{repo: r, tx: tx, roomID: roomID}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Get returns the reservation with the given ID.
func (r *ReservationRepo) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	res, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Intersecting lists the room's reservations overlapping [from, to).
func (r *ReservationRepo) Intersecting(ctx context.Context, roomID uint64, from, to time.Time) ([]model.Reservation, error) {
	return r.list(ctx, r.db, `SELECT `+reservationColumns+` FROM reservations
		WHERE room_id = ? AND start_at < ? AND end_at > ?
		ORDER BY start_at, id`, roomID, to.In(r.loc), from.In(r.loc))
}

// StartingBetween lists reservations of all rooms starting in [from, to).
func (r *ReservationRepo) StartingBetween(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	return r.list(ctx, r.db, `SELECT `+reservationColumns+` FROM reservations
		WHERE start_at >= ? AND start_at < ?
		ORDER BY start_at, room_id, id`, from.In(r.loc), to.In(r.loc))
}

// ByOwner lists the owner's reservations, optionally windowed by start.
func (r *ReservationRepo) ByOwner(ctx context.Context, owner string, from, to time.Time) ([]model.Reservation, error) {
	if from.IsZero() {
		return r.list(ctx, r.db, `SELECT `+reservationColumns+` FROM reservations
			WHERE owner = ?
			ORDER BY start_at, room_id, id`, owner)
	}
	return r.list(ctx, r.db, `SELECT `+reservationColumns+` FROM reservations
		WHERE owner = ? AND start_at >= ? AND start_at < ?
		ORDER BY start_at, room_id, id`, owner, from.In(r.loc), to.In(r.loc))
}

type sqlRoomTx struct {
	repo   *ReservationRepo
	tx     *sql.Tx
	roomID uint64
}

func (t *sqlRoomTx) Intersecting(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	return t.repo.list(ctx, t.tx, `SELECT `+reservationColumns+` FROM reservations
		WHERE room_id = ? AND start_at < ? AND end_at > ?
		ORDER BY start_at, id`, t.roomID, to.In(t.repo.loc), from.In(t.repo.loc))
}

// Insert stores res and populates its generated ID.  res.RoomID is forced
// to the room the transaction was opened for.
func (t *sqlRoomTx) Insert(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (room_id, owner, start_at, end_at) VALUES (?, ?, ?, ?)`
	result, err := t.tx.ExecContext(ctx, q, t.roomID, res.Owner, res.Start.In(t.repo.loc), res.End.In(t.repo.loc))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	res.RoomID = t.roomID
	return nil
}

func (t *sqlRoomTx) Delete(ctx context.Context, id uint64) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ? AND room_id = ?`, id, t.roomID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
