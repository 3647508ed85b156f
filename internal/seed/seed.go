// Package seed books a demo schedule through the ledger so every seeded
// row passes the same validation and conflict checks as live traffic.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/room-reservation/internal/service"
)

// Booking is one demo reservation on a room named Room.
type Booking struct {
	Room  string
	Owner string
	Start string
	End   string
}

// DemoDate is the day the demo schedule is booked on by default.
const DemoDate = "2025-10-24"

// Demo spreads fifteen bookings over the four default rooms.
var Demo = []Booking{
	{"Room A", "userA", "09:00", "10:30"},
	{"Room A", "userB", "11:00", "12:00"},
	{"Room A", "userC", "14:00", "15:30"},
	{"Room A", "userA", "16:00", "17:00"},

	{"Room B", "userB", "10:00", "11:00"},
	{"Room B", "userD", "13:00", "14:30"},
	{"Room B", "userA", "18:00", "19:00"},

	{"Room C", "userC", "08:00", "09:00"},
	{"Room C", "userA", "09:30", "11:00"},
	{"Room C", "userB", "11:30", "13:00"},
	{"Room C", "userD", "14:00", "16:00"},
	{"Room C", "userC", "16:30", "18:00"},

	{"Room D", "userA", "10:00", "12:00"},
	{"Room D", "userB", "13:00", "15:30"},
	{"Room D", "userC", "16:00", "18:30"},
}

// Result summarises a Run.
type Result struct {
	Removed int
	Created int
	Skipped int
}

// Run cancels every reservation starting on date and books plan in its
// place.  Bookings for rooms missing from the catalog are skipped; any
// other failure stops the run.
func Run(ctx context.Context, ledger *service.Ledger, date string, plan []Booking, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var out Result
	existing, err := ledger.ListByDate(ctx, date)
	if err != nil {
		return out, err
	}
	for _, r := range existing {
		if err := ledger.Cancel(ctx, r.ID, ""); err != nil {
			return out, fmt.Errorf("seed: cancel %d: %w", r.ID, err)
		}
		out.Removed++
	}

	for _, b := range plan {
		room, ok := ledger.Rooms().Lookup(b.Room)
		if !ok {
			log.Warn("seed: unknown room, skipping", zap.String("room", b.Room))
			out.Skipped++
			continue
		}
		res, err := ledger.Create(ctx, service.CreateRequest{
			RoomID: room.ID, Owner: b.Owner, Date: date, Start: b.Start, End: b.End,
		})
		if err != nil {
			return out, fmt.Errorf("seed: %s %s-%s: %w", b.Room, b.Start, b.End, err)
		}
		log.Info("seed: booked", zap.Uint64("id", res.ID), zap.String("room", room.Name),
			zap.String("owner", b.Owner), zap.String("start", b.Start), zap.String("end", b.End))
		out.Created++
	}
	return out, nil
}
