package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/schedule"
	"github.com/iliyamo/room-reservation/internal/service"
)

// Actions reported with every agent response.
const (
	ActionReserve = "reserve"
	ActionCancel  = "cancel"
	ActionCheck   = "check"
	ActionSearch  = "search"
	ActionInfo    = "info"
)

// Ledger is the set of booking operations the agent may use.
type Ledger interface {
	Create(ctx context.Context, req service.CreateRequest) (*model.Reservation, error)
	BookNow(ctx context.Context, req service.BookNowRequest) (*model.Reservation, error)
	Cancel(ctx context.Context, id uint64, owner string) error
	ListByDate(ctx context.Context, date string) ([]model.Reservation, error)
	ListByOwner(ctx context.Context, owner, date string) ([]model.Reservation, error)
	FindAvailable(ctx context.Context, req service.AvailabilityRequest) ([]model.Room, error)
	Rooms() *service.RoomCatalog
	Policy() *schedule.Policy
}

type createArgs struct {
	RoomID   uint64 `json:"room_id"`
	RoomName string `json:"room_name"`
	Date     string `json:"date" validate:"required"`
	Start    string `json:"start_time" validate:"required"`
	End      string `json:"end_time" validate:"required"`
}

type bookNowArgs struct {
	RoomID   uint64 `json:"room_id"`
	RoomName string `json:"room_name"`
	Duration int    `json:"duration_minutes" validate:"required,gt=0"`
}

type cancelArgs struct {
	ReservationID uint64 `json:"reservation_id" validate:"required"`
}

type dateArgs struct {
	Date string `json:"date"`
}

type availableArgs struct {
	Date        string `json:"date" validate:"required"`
	Start       string `json:"start_time" validate:"required"`
	Duration    int    `json:"duration_minutes"`
	MinCapacity int    `json:"min_capacity" validate:"gte=0"`
}

// Dispatcher runs ToolCalls against the ledger on behalf of one owner.
// Arguments are decoded into typed structs and validated before any
// ledger call.
type Dispatcher struct {
	ledger   Ledger
	validate *validator.Validate
}

// NewDispatcher returns a Dispatcher for ledger.
func NewDispatcher(ledger Ledger) *Dispatcher {
	return &Dispatcher{ledger: ledger, validate: validator.New()}
}

// Specs lists the tools offered to the model.
func (d *Dispatcher) Specs() []ToolSpec {
	room := []Param{
		{Name: "room_id", Type: TypeInteger, Description: "Room ID from the room list"},
		{Name: "room_name", Type: TypeString, Description: "Room name, used when the ID is unknown"},
	}
	return []ToolSpec{
		{
			Name:        "create_reservation",
			Description: "Reserve a room for a time window on a date",
			Params: append(append([]Param(nil), room...),
				Param{Name: "date", Type: TypeString, Description: "Date as YYYY-MM-DD", Required: true},
				Param{Name: "start_time", Type: TypeString, Description: "Start time as HH:MM (24h)", Required: true},
				Param{Name: "end_time", Type: TypeString, Description: "End time as HH:MM (24h)", Required: true},
			),
		},
		{
			Name:        "book_now",
			Description: "Reserve a room starting from the current time slot",
			Params: append(append([]Param(nil), room...),
				Param{Name: "duration_minutes", Type: TypeInteger, Description: "Length in minutes after the next slot boundary", Required: true},
			),
		},
		{
			Name:        "cancel_reservation",
			Description: "Cancel one of the user's reservations",
			Params: []Param{
				{Name: "reservation_id", Type: TypeInteger, Description: "ID of the reservation to cancel", Required: true},
			},
		},
		{
			Name:        "list_reservations",
			Description: "List every reservation on a date",
			Params: []Param{
				{Name: "date", Type: TypeString, Description: "Date as YYYY-MM-DD", Required: true},
			},
		},
		{
			Name:        "list_my_reservations",
			Description: "List the user's own reservations, optionally for one date",
			Params: []Param{
				{Name: "date", Type: TypeString, Description: "Date as YYYY-MM-DD"},
			},
		},
		{
			Name:        "find_available_rooms",
			Description: "Find rooms free for a window, optionally with a minimum capacity",
			Params: []Param{
				{Name: "date", Type: TypeString, Description: "Date as YYYY-MM-DD", Required: true},
				{Name: "start_time", Type: TypeString, Description: "Start time as HH:MM (24h)", Required: true},
				{Name: "duration_minutes", Type: TypeInteger, Description: "Length in minutes, default 60"},
				{Name: "min_capacity", Type: TypeInteger, Description: "Minimum number of seats"},
			},
		},
	}
}

// Run executes call for owner.  Ledger failures are not returned as
// errors: they are reported in the result so the model can explain them.
// The result only holds JSON primitives, maps and slices.
func (d *Dispatcher) Run(ctx context.Context, owner string, call ToolCall) (map[string]any, string) {
	switch call.Name {
	case "create_reservation":
		var a createArgs
		if err := d.decode(call.Args, &a); err != nil {
			return failure(err), ActionReserve
		}
		roomID, err := d.resolveRoom(a.RoomID, a.RoomName)
		if err != nil {
			return failure(err), ActionReserve
		}
		res, err := d.ledger.Create(ctx, service.CreateRequest{RoomID: roomID, Owner: owner, Date: a.Date, Start: a.Start, End: a.End})
		if err != nil {
			return failure(err), ActionReserve
		}
		return success("reservation", d.view(*res)), ActionReserve

	case "book_now":
		var a bookNowArgs
		if err := d.decode(call.Args, &a); err != nil {
			return failure(err), ActionReserve
		}
		roomID, err := d.resolveRoom(a.RoomID, a.RoomName)
		if err != nil {
			return failure(err), ActionReserve
		}
		res, err := d.ledger.BookNow(ctx, service.BookNowRequest{RoomID: roomID, Owner: owner, DurationMinutes: a.Duration})
		if err != nil {
			return failure(err), ActionReserve
		}
		return success("reservation", d.view(*res)), ActionReserve

	case "cancel_reservation":
		var a cancelArgs
		if err := d.decode(call.Args, &a); err != nil {
			return failure(err), ActionCancel
		}
		if err := d.ledger.Cancel(ctx, a.ReservationID, owner); err != nil {
			return failure(err), ActionCancel
		}
		return success("cancelled_id", a.ReservationID), ActionCancel

	case "list_reservations", "list_my_reservations":
		var a dateArgs
		if err := d.decode(call.Args, &a); err != nil {
			return failure(err), ActionCheck
		}
		var (
			rs  []model.Reservation
			err error
		)
		if call.Name == "list_reservations" {
			rs, err = d.ledger.ListByDate(ctx, a.Date)
		} else {
			rs, err = d.ledger.ListByOwner(ctx, owner, a.Date)
		}
		if err != nil {
			return failure(err), ActionCheck
		}
		views := make([]reservationView, len(rs))
		for i, r := range rs {
			views[i] = d.view(r)
		}
		return success("reservations", views), ActionCheck

	case "find_available_rooms":
		var a availableArgs
		if err := d.decode(call.Args, &a); err != nil {
			return failure(err), ActionSearch
		}
		if a.Duration == 0 {
			a.Duration = 60
		}
		rooms, err := d.ledger.FindAvailable(ctx, service.AvailabilityRequest{
			Date: a.Date, Start: a.Start, DurationMinutes: a.Duration, MinCapacity: a.MinCapacity,
		})
		if err != nil {
			return failure(err), ActionSearch
		}
		return success("rooms", rooms), ActionSearch
	}
	return failure(fmt.Errorf("%w: unknown tool %q", service.ErrMalformedInput, call.Name)), ActionInfo
}

func (d *Dispatcher) decode(args map[string]any, dst any) error {
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrMalformedInput, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%w: %v", service.ErrMalformedInput, err)
	}
	return argumentError(d.validate.Struct(dst))
}

// argumentError maps a failed "required" rule to ErrMissingField and any
// other rule to ErrValidation.
func argumentError(err error) error {
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return fmt.Errorf("%w: %v", service.ErrValidation, err)
	}
	kind := service.ErrValidation
	for _, fe := range fields {
		if fe.Tag() == "required" {
			kind = service.ErrMissingField
			break
		}
	}
	return fmt.Errorf("%w: %v", kind, err)
}

func (d *Dispatcher) resolveRoom(id uint64, name string) (uint64, error) {
	if id != 0 {
		return id, nil
	}
	if name == "" {
		return 0, fmt.Errorf("%w: room_id or room_name", service.ErrMissingField)
	}
	room, ok := d.ledger.Rooms().Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", service.ErrRoomNotFound, name)
	}
	return room.ID, nil
}

type reservationView struct {
	ID       uint64 `json:"id"`
	RoomID   uint64 `json:"room_id"`
	RoomName string `json:"room_name"`
	Owner    string `json:"owner"`
	Date     string `json:"date"`
	Start    string `json:"start_time"`
	End      string `json:"end_time"`
}

func (d *Dispatcher) view(r model.Reservation) reservationView {
	g := d.ledger.Policy().Grid()
	return reservationView{
		ID:       r.ID,
		RoomID:   r.RoomID,
		RoomName: r.RoomName,
		Owner:    r.Owner,
		Date:     g.DateString(r.Start),
		Start:    g.TimeString(r.Start),
		End:      g.TimeString(r.End),
	}
}

func success(key string, v any) map[string]any {
	return normalize(map[string]any{"ok": true, key: v})
}

func failure(err error) map[string]any {
	return map[string]any{"ok": false, "error": service.Kind(err), "message": err.Error()}
}

// normalize round-trips v through JSON so only generic values remain.
func normalize(v map[string]any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"ok": false, "error": "internal", "message": err.Error()}
	}
	var out map[string]any
	_ = json.Unmarshal(b, &out)
	return out
}
