package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/schedule"
)

// FindAvailable returns the rooms with capacity >= req.MinCapacity and no
// reservation overlapping the requested window, ordered by room ID.  It
// takes no room scope, so the answer is a snapshot: a later Create may
// still fail with ErrConflict.
func (l *Ledger) FindAvailable(ctx context.Context, req AvailabilityRequest) ([]model.Room, error) {
	if req.Date == "" || req.Start == "" {
		return nil, fmt.Errorf("%w: date and start_time are required", ErrMissingField)
	}
	start, err := l.grid.ParseDateTime(req.Date, req.Start)
	if err != nil {
		return nil, err
	}
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)
	if err := l.policy.ValidateWindow(start, end); err != nil {
		return nil, err
	}

	from, _ := l.grid.DayBounds(start)
	_, to := l.grid.DayBounds(end.Add(-time.Nanosecond))
	out := []model.Room{}
	for _, room := range l.rooms.List() {
		if req.MinCapacity > 0 && room.Capacity < req.MinCapacity {
			continue
		}
		existing, err := l.store.Intersecting(ctx, room.ID, from, to)
		if err != nil {
			return nil, l.classify(err)
		}
		if free(existing, start, end) {
			out = append(out, room)
		}
	}
	return out, nil
}

func free(existing []model.Reservation, start, end time.Time) bool {
	for _, ex := range existing {
		if schedule.Overlaps(start, end, ex.Start, ex.End) {
			return false
		}
	}
	return true
}
