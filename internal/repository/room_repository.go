package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/room-reservation/internal/model"
)

// RoomRepo manages the rooms table.  Rooms are owned by configuration:
// Sync reconciles the table with the configured list at startup and
// nothing else writes to it.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// List returns all rooms ordered by ID.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, capacity FROM rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Room{}
	for rows.Next() {
		var rm model.Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.Capacity); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// Sync makes the rooms table match want, keyed by name.  Missing rooms are
// inserted in the given order, capacities are updated, and rooms absent
// from want are deleted together with their reservations (ON DELETE
// CASCADE).  It returns the resulting rooms ordered by ID.
func (r *RoomRepo) Sync(ctx context.Context, want []model.Room) ([]model.Room, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, `SELECT id, name, capacity FROM rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	var current []model.Room
	existing := map[string]model.Room{}
	for rows.Next() {
		var rm model.Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.Capacity); err != nil {
			rows.Close()
			return nil, err
		}
		current = append(current, rm)
		existing[rm.Name] = rm
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	keep := map[string]bool{}
	for _, w := range want {
		keep[w.Name] = true
		cur, ok := existing[w.Name]
		switch {
		case !ok:
			if _, err := tx.ExecContext(ctx, `INSERT INTO rooms (name, capacity) VALUES (?, ?)`, w.Name, w.Capacity); err != nil {
				return nil, err
			}
		case cur.Capacity != w.Capacity:
			if _, err := tx.ExecContext(ctx, `UPDATE rooms SET capacity = ? WHERE id = ?`, w.Capacity, cur.ID); err != nil {
				return nil, err
			}
		}
	}
	for _, cur := range current {
		if keep[cur.Name] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, cur.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.List(ctx)
}
