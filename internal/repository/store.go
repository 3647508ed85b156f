package repository

import (
	"context"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// ReservationStore is the persistent reservation table as seen by the
// booking ledger.  Only WithRoom may write; every write happens inside
// the atomic unit it opens for one room.
type ReservationStore interface {
	// WithRoom runs fn inside one atomic unit of work scoped to roomID.
	// Writes made through the RoomTx are committed only when fn returns
	// nil; any error discards them.
	WithRoom(ctx context.Context, roomID uint64, fn func(RoomTx) error) error
	// Get returns a single reservation or ErrNotFound.
	Get(ctx context.Context, id uint64) (*model.Reservation, error)
	// Intersecting returns reservations on roomID with start < to and
	// end > from, ordered by start.
	Intersecting(ctx context.Context, roomID uint64, from, to time.Time) ([]model.Reservation, error)
	// StartingBetween returns reservations of every room whose start lies
	// in [from, to), ordered by start then room.
	StartingBetween(ctx context.Context, from, to time.Time) ([]model.Reservation, error)
	// ByOwner returns the owner's reservations.  A zero from disables the
	// window; otherwise only starts in [from, to) are returned.
	ByOwner(ctx context.Context, owner string, from, to time.Time) ([]model.Reservation, error)
}

// RoomTx is the view of one room inside a WithRoom unit of work.
type RoomTx interface {
	Intersecting(ctx context.Context, from, to time.Time) ([]model.Reservation, error)
	Insert(ctx context.Context, res *model.Reservation) error
	Delete(ctx context.Context, id uint64) error
}
