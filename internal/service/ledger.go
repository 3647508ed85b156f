package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iliyamo/room-reservation/internal/lock"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/queue"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/schedule"
)

// Notifier receives reservation events after commit.
type Notifier interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Options tunes a Ledger.  Zero values select the defaults.
type Options struct {
	LockWait     time.Duration // per attempt, default 3s
	LockAttempts int           // default 3
	Notifier     Notifier
	Logger       *zap.Logger
}

// Ledger creates and cancels reservations.  Writers of the same room are
// serialised by a per-room scope taken from the Locker and held across
// the read-check-write sequence; rooms never wait on each other.  Reads
// take no scope.
type Ledger struct {
	store    repository.ReservationStore
	rooms    *RoomCatalog
	policy   *schedule.Policy
	grid     *schedule.Grid
	locks    lock.Locker
	wait     time.Duration
	attempts int
	notify   Notifier
	log      *zap.Logger
}

// NewLedger wires a Ledger.  A nil locker selects an in-process keyed
// mutex.
func NewLedger(store repository.ReservationStore, rooms *RoomCatalog, policy *schedule.Policy, locks lock.Locker, opts Options) *Ledger {
	if locks == nil {
		locks = lock.NewKeyedMutex()
	}
	if opts.LockWait <= 0 {
		opts.LockWait = 3 * time.Second
	}
	if opts.LockAttempts <= 0 {
		opts.LockAttempts = 3
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Ledger{
		store:    store,
		rooms:    rooms,
		policy:   policy,
		grid:     policy.Grid(),
		locks:    locks,
		wait:     opts.LockWait,
		attempts: opts.LockAttempts,
		notify:   opts.Notifier,
		log:      opts.Logger,
	}
}

// Rooms returns the catalog the ledger books against.
func (l *Ledger) Rooms() *RoomCatalog { return l.rooms }

// Policy returns the validation policy in force.
func (l *Ledger) Policy() *schedule.Policy { return l.policy }

// Create books req.RoomID for the requested window.
func (l *Ledger) Create(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	if req.Date == "" || req.Start == "" || req.End == "" {
		return nil, fmt.Errorf("%w: date, start_time and end_time are required", ErrMissingField)
	}
	start, err := l.grid.ParseDateTime(req.Date, req.Start)
	if err != nil {
		return nil, err
	}
	end, err := l.grid.ParseDateTime(req.Date, req.End)
	if err != nil {
		return nil, err
	}
	return l.create(ctx, req.RoomID, req.Owner, start, end)
}

// BookNow books from the start of the current grid slot until
// DurationMinutes after the next boundary.  It goes through the same
// validation and conflict path as Create.
func (l *Ledger) BookNow(ctx context.Context, req BookNowRequest) (*model.Reservation, error) {
	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrOrdering)
	}
	now := l.grid.Now()
	start := l.grid.Floor(now)
	end := l.grid.Next(now).Add(time.Duration(req.DurationMinutes) * time.Minute)
	return l.create(ctx, req.RoomID, req.Owner, start, end)
}

func (l *Ledger) create(ctx context.Context, roomID uint64, owner string, start, end time.Time) (*model.Reservation, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, fmt.Errorf("%w: owner", ErrMissingField)
	}
	if !utf8.ValidString(owner) || utf8.RuneCountInString(owner) > model.MaxOwnerLength {
		return nil, fmt.Errorf("%w: owner must be valid UTF-8 of at most %d characters", ErrValidation, model.MaxOwnerLength)
	}
	if err := l.policy.Validate(roomID, start, end); err != nil {
		return nil, err
	}
	room, ok := l.rooms.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrRoomNotFound, roomID)
	}

	res := &model.Reservation{Owner: owner, Start: start, End: end}
	from, _ := l.grid.DayBounds(start)
	_, to := l.grid.DayBounds(end.Add(-time.Nanosecond))
	err := l.inRoom(ctx, roomID, func(tx repository.RoomTx) error {
		existing, err := tx.Intersecting(ctx, from, to)
		if err != nil {
			return err
		}
		for _, ex := range existing {
			if schedule.Overlaps(start, end, ex.Start, ex.End) {
				return fmt.Errorf("%w: %s is booked %s-%s", ErrConflict, room.Name,
					l.grid.TimeString(ex.Start), l.grid.TimeString(ex.End))
			}
		}
		return tx.Insert(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	res.RoomName = room.Name
	l.log.Info("reservation created",
		zap.Uint64("id", res.ID), zap.Uint64("room_id", roomID), zap.String("owner", owner),
		zap.Time("start", start), zap.Time("end", end))
	l.publish(queue.EventCreated, *res)
	return res, nil
}

// Cancel removes a reservation.  When owner is non-empty it must match
// the reservation's owner.
func (l *Ledger) Cancel(ctx context.Context, id uint64, owner string) error {
	res, err := l.store.Get(ctx, id)
	if err != nil {
		return l.classify(err)
	}
	if owner != "" && res.Owner != owner {
		return fmt.Errorf("%w: reservation %d belongs to another user", ErrForbidden, id)
	}
	if err := l.inRoom(ctx, res.RoomID, func(tx repository.RoomTx) error {
		return tx.Delete(ctx, id)
	}); err != nil {
		return err
	}
	if room, ok := l.rooms.Get(res.RoomID); ok {
		res.RoomName = room.Name
	}
	l.log.Info("reservation cancelled", zap.Uint64("id", id), zap.Uint64("room_id", res.RoomID))
	l.publish(queue.EventCancelled, *res)
	return nil
}

// ListByDate returns every reservation starting on date, ordered by start
// then room.
func (l *Ledger) ListByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	day, err := l.grid.ParseDate(date)
	if err != nil {
		return nil, err
	}
	from, to := l.grid.DayBounds(day)
	out, err := l.store.StartingBetween(ctx, from, to)
	if err != nil {
		return nil, l.classify(err)
	}
	return l.withNames(out), nil
}

// ListByOwner returns the owner's reservations, limited to those starting
// on date when date is non-empty.
func (l *Ledger) ListByOwner(ctx context.Context, owner, date string) ([]model.Reservation, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner", ErrMissingField)
	}
	var from, to time.Time
	if date != "" {
		day, err := l.grid.ParseDate(date)
		if err != nil {
			return nil, err
		}
		from, to = l.grid.DayBounds(day)
	}
	out, err := l.store.ByOwner(ctx, owner, from, to)
	if err != nil {
		return nil, l.classify(err)
	}
	return l.withNames(out), nil
}

func (l *Ledger) withNames(rs []model.Reservation) []model.Reservation {
	for i := range rs {
		if room, ok := l.rooms.Get(rs[i].RoomID); ok {
			rs[i].RoomName = room.Name
		}
	}
	return rs
}

// inRoom runs fn in the store's unit of work for roomID while holding the
// room scope.  Acquisition is retried l.attempts times with l.wait each.
func (l *Ledger) inRoom(ctx context.Context, roomID uint64, fn func(repository.RoomTx) error) error {
	key := "room:" + strconv.FormatUint(roomID, 10)
	for attempt := 1; attempt <= l.attempts; attempt++ {
		lctx, cancel := context.WithTimeout(ctx, l.wait)
		release, err := l.locks.Lock(lctx, key)
		cancel()
		if err != nil {
			l.log.Warn("room scope busy", zap.Uint64("room_id", roomID), zap.Int("attempt", attempt), zap.Error(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		err = l.store.WithRoom(ctx, roomID, fn)
		release()
		return l.classify(err)
	}
	return fmt.Errorf("%w: room %d is busy, retry later", ErrTransient, roomID)
}

// classify maps store and lock errors onto the ledger's sentinels.
// Errors that already carry a ledger kind pass through; anything else is
// logged and flattened into ErrTransient.
func (l *Ledger) classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrRoomNotFound):
		return ErrRoomNotFound
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrValidation),
		errors.Is(err, ErrMalformedInput), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden), errors.Is(err, ErrTransient):
		return err
	}
	l.log.Error("store failure", zap.Error(err))
	return ErrTransient
}

func (l *Ledger) publish(kind string, res model.Reservation) {
	if l.notify == nil {
		return
	}
	ev := queue.ReservationEvent{
		Type:          kind,
		ReservationID: res.ID,
		RoomID:        res.RoomID,
		RoomName:      res.RoomName,
		Owner:         res.Owner,
		Date:          l.grid.DateString(res.Start),
		StartTime:     l.grid.TimeString(res.Start),
		EndTime:       l.grid.TimeString(res.End),
		OccurredAt:    l.grid.Now().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.notify.Publish(ctx, ev); err != nil {
			l.log.Warn("publish reservation event failed", zap.String("type", kind), zap.Error(err))
		}
	}()
}
