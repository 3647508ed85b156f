package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iliyamo/room-reservation/internal/lock"
	"github.com/iliyamo/room-reservation/internal/model"
)

// MemoryStore is an in-process ReservationStore.  Each WithRoom call
// holds a per-room row lock, buffers its writes and applies them under
// the table lock only when fn succeeds, so a failed unit of work leaves
// no trace.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   uint64
	rooms    map[uint64]bool
	rows     map[uint64]model.Reservation
	rowLocks *lock.KeyedMutex
}

// NewMemoryStore returns an empty table that accepts reservations for the
// given rooms.
func NewMemoryStore(rooms []model.Room) *MemoryStore {
	s := &MemoryStore{
		rooms:    map[uint64]bool{},
		rows:     map[uint64]model.Reservation{},
		rowLocks: lock.NewKeyedMutex(),
	}
	for _, rm := range rooms {
		s.rooms[rm.ID] = true
	}
	return s
}

// SyncRooms assigns IDs 1..n to the configured rooms in order and drops
// reservations of rooms no longer present.  It mirrors RoomRepo.Sync for
// deployments without a database.
func (s *MemoryStore) SyncRooms(want []model.Room) []model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Room, len(want))
	s.rooms = map[uint64]bool{}
	for i, w := range want {
		w.ID = uint64(i + 1)
		out[i] = w
		s.rooms[w.ID] = true
	}
	for id, res := range s.rows {
		if !s.rooms[res.RoomID] {
			delete(s.rows, id)
		}
	}
	return out
}

func (s *MemoryStore) WithRoom(ctx context.Context, roomID uint64, fn func(RoomTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	known := s.rooms[roomID]
	s.mu.RUnlock()
	if !known {
		return ErrRoomNotFound
	}
	release, err := s.rowLocks.Lock(ctx, strconv.FormatUint(roomID, 10))
	if err != nil {
		return err
	}
	defer release()

	tx := &memoryTx{store: s, roomID: roomID, deleted: map[uint64]bool{}}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range tx.deleted {
		delete(s.rows, id)
	}
	for _, res := range tx.inserted {
		s.rows[res.ID] = res
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &res, nil
}

func (s *MemoryStore) Intersecting(ctx context.Context, roomID uint64, from, to time.Time) ([]model.Reservation, error) {
	return s.filter(func(r model.Reservation) bool {
		return r.RoomID == roomID && r.Start.Before(to) && r.End.After(from)
	}), nil
}

func (s *MemoryStore) StartingBetween(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	return s.filter(func(r model.Reservation) bool {
		return !r.Start.Before(from) && r.Start.Before(to)
	}), nil
}

func (s *MemoryStore) ByOwner(ctx context.Context, owner string, from, to time.Time) ([]model.Reservation, error) {
	return s.filter(func(r model.Reservation) bool {
		if r.Owner != owner {
			return false
		}
		return from.IsZero() || (!r.Start.Before(from) && r.Start.Before(to))
	}), nil
}

func (s *MemoryStore) filter(keep func(model.Reservation) bool) []model.Reservation {
	s.mu.RLock()
	out := []model.Reservation{}
	for _, r := range s.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()
	sortReservations(out)
	return out
}

func sortReservations(rs []model.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.RoomID != b.RoomID {
			return a.RoomID < b.RoomID
		}
		return a.ID < b.ID
	})
}

type memoryTx struct {
	store    *MemoryStore
	roomID   uint64
	inserted []model.Reservation
	deleted  map[uint64]bool
}

func (t *memoryTx) Intersecting(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	base, _ := t.store.Intersecting(ctx, t.roomID, from, to)
	out := base[:0]
	for _, r := range base {
		if !t.deleted[r.ID] {
			out = append(out, r)
		}
	}
	for _, r := range t.inserted {
		if r.Start.Before(to) && r.End.After(from) {
			out = append(out, r)
		}
	}
	sortReservations(out)
	return out, nil
}

func (t *memoryTx) Insert(ctx context.Context, res *model.Reservation) error {
	t.store.mu.Lock()
	t.store.nextID++
	res.ID = t.store.nextID
	t.store.mu.Unlock()
	res.RoomID = t.roomID
	row := *res
	row.RoomName = ""
	t.inserted = append(t.inserted, row)
	return nil
}

func (t *memoryTx) Delete(ctx context.Context, id uint64) error {
	t.store.mu.RLock()
	res, ok := t.store.rows[id]
	t.store.mu.RUnlock()
	if !ok || res.RoomID != t.roomID || t.deleted[id] {
		return ErrNotFound
	}
	t.deleted[id] = true
	return nil
}
