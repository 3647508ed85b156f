package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/room-reservation/internal/lock"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/schedule"
	"github.com/iliyamo/room-reservation/internal/service"
)

var jst = time.FixedZone("JST", 9*3600)

func newTestLedger(t *testing.T) *service.Ledger {
	t.Helper()
	rooms := []model.Room{
		{ID: 1, Name: "Room A", Capacity: 4},
		{ID: 2, Name: "Room B", Capacity: 10},
	}
	now := time.Date(2025, 10, 24, 9, 10, 0, 0, jst)
	grid := schedule.NewGrid(jst, 30, func() time.Time { return now })
	policy, err := schedule.NewPolicy(grid, "07:00", "22:00")
	require.NoError(t, err)
	return service.NewLedger(repository.NewMemoryStore(rooms), service.NewRoomCatalog(rooms), policy,
		lock.NewKeyedMutex(), service.Options{Logger: zap.NewNop()})
}

// scriptedModel replays canned replies and records the turns it saw.
type scriptedModel struct {
	replies []*Reply
	errs    []error
	turns   []Turn
}

func (m *scriptedModel) Complete(ctx context.Context, turn Turn) (*Reply, error) {
	i := len(m.turns)
	m.turns = append(m.turns, turn)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.replies) {
		return m.replies[i], nil
	}
	return &Reply{}, nil
}

type memoryHistory struct {
	sessions map[string][]Message
}

func (h *memoryHistory) Append(ctx context.Context, session string, msgs ...Message) error {
	h.sessions[session] = append(h.sessions[session], msgs...)
	return nil
}

func (h *memoryHistory) Load(ctx context.Context, session string, limit int) ([]Message, error) {
	all := h.sessions[session]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (h *memoryHistory) Clear(ctx context.Context, session string) error {
	delete(h.sessions, session)
	return nil
}

func (h *memoryHistory) Len(ctx context.Context, session string) (int64, error) {
	return int64(len(h.sessions[session])), nil
}

func TestAgent_ReserveTwoPasses(t *testing.T) {
	ledger := newTestLedger(t)
	m := &scriptedModel{replies: []*Reply{
		{Call: &ToolCall{Name: "create_reservation", Args: map[string]any{
			"room_name": "room a", "date": "2025-10-24", "start_time": "14:00", "end_time": "15:00",
		}}},
		{Text: "Room A is yours from 14:00 to 15:00."},
	}}
	hist := &memoryHistory{sessions: map[string][]Message{}}
	agent := NewAgent(m, ledger, AgentOptions{History: hist})

	resp, err := agent.Handle(context.Background(), "s1", "alice", "Book room A today 2pm for an hour")
	require.NoError(t, err)
	assert.Equal(t, ActionReserve, resp.Action)
	assert.Equal(t, "Room A is yours from 14:00 to 15:00.", resp.Reply)
	assert.Equal(t, true, resp.Data["ok"])

	require.Len(t, m.turns, 2)
	assert.Contains(t, m.turns[0].System, "Room A (ID: 1, capacity: 4)")
	assert.Contains(t, m.turns[0].System, `"tomorrow" = 2025-10-25`)
	assert.Len(t, m.turns[0].Tools, 6)
	require.NotNil(t, m.turns[1].Call)
	assert.Equal(t, true, m.turns[1].Result["ok"])

	mine, err := ledger.ListByOwner(context.Background(), "alice", "2025-10-24")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Room A", mine[0].RoomName)

	require.Len(t, hist.sessions["s1"], 2)
	assert.Equal(t, RoleModel, hist.sessions["s1"][1].Role)
}

func TestAgent_LedgerErrorIsReportedNotFailed(t *testing.T) {
	ledger := newTestLedger(t)
	m := &scriptedModel{
		replies: []*Reply{{Call: &ToolCall{Name: "create_reservation", Args: map[string]any{
			"room_id": float64(1), "date": "2025-10-24", "start_time": "06:00", "end_time": "07:00",
		}}}},
		errs: []error{nil, errors.New("quota")},
	}
	agent := NewAgent(m, ledger, AgentOptions{})

	resp, err := agent.Handle(context.Background(), "s2", "bob", "book A at 6")
	require.NoError(t, err)
	assert.Equal(t, ActionReserve, resp.Action)
	assert.Equal(t, "business_hours", resp.Data["error"])
	assert.True(t, strings.HasPrefix(resp.Reply, "Sorry"))
}

func TestAgent_PlainAnswerIsInfo(t *testing.T) {
	m := &scriptedModel{replies: []*Reply{{Text: "Hello! How can I help?"}}}
	agent := NewAgent(m, newTestLedger(t), AgentOptions{})

	resp, err := agent.Handle(context.Background(), "s3", "carol", "hi")
	require.NoError(t, err)
	assert.Equal(t, ActionInfo, resp.Action)
	assert.Equal(t, "Hello! How can I help?", resp.Reply)
	assert.Len(t, m.turns, 1)
}

func TestAgent_ModelFailure(t *testing.T) {
	m := &scriptedModel{errs: []error{errors.New("unavailable")}}
	agent := NewAgent(m, newTestLedger(t), AgentOptions{})

	_, err := agent.Handle(context.Background(), "s4", "dave", "hi")
	assert.Error(t, err)
}

func TestDispatcher_Tools(t *testing.T) {
	ledger := newTestLedger(t)
	d := NewDispatcher(ledger)
	ctx := context.Background()

	res, action := d.Run(ctx, "erin", ToolCall{Name: "book_now", Args: map[string]any{"room_id": 2, "duration_minutes": 30}})
	assert.Equal(t, ActionReserve, action)
	require.Equal(t, true, res["ok"])
	booked := res["reservation"].(map[string]any)
	assert.Equal(t, "09:00", booked["start_time"])
	assert.Equal(t, "10:00", booked["end_time"])

	res, action = d.Run(ctx, "erin", ToolCall{Name: "find_available_rooms", Args: map[string]any{
		"date": "2025-10-24", "start_time": "09:30", "min_capacity": 5,
	}})
	assert.Equal(t, ActionSearch, action)
	assert.Empty(t, res["rooms"])

	res, action = d.Run(ctx, "erin", ToolCall{Name: "list_my_reservations", Args: map[string]any{}})
	assert.Equal(t, ActionCheck, action)
	assert.Len(t, res["reservations"], 1)

	id := booked["id"]
	res, _ = d.Run(ctx, "frank", ToolCall{Name: "cancel_reservation", Args: map[string]any{"reservation_id": id}})
	assert.Equal(t, "forbidden", res["error"])

	res, action = d.Run(ctx, "erin", ToolCall{Name: "cancel_reservation", Args: map[string]any{"reservation_id": id}})
	assert.Equal(t, ActionCancel, action)
	assert.Equal(t, true, res["ok"])

	res, _ = d.Run(ctx, "erin", ToolCall{Name: "cancel_reservation", Args: map[string]any{}})
	assert.Equal(t, "missing_field", res["error"])

	res, action = d.Run(ctx, "erin", ToolCall{Name: "find_available_rooms", Args: map[string]any{
		"date": "2025-10-24", "start_time": "09:30", "min_capacity": -1,
	}})
	assert.Equal(t, ActionSearch, action)
	assert.Equal(t, "validation", res["error"])

	res, _ = d.Run(ctx, "erin", ToolCall{Name: "book_now", Args: map[string]any{"room_id": 2, "duration_minutes": -30}})
	assert.Equal(t, "validation", res["error"])

	res, action = d.Run(ctx, "erin", ToolCall{Name: "order_pizza"})
	assert.Equal(t, ActionInfo, action)
	assert.Equal(t, "malformed_input", res["error"])
}

func TestFallbackReply(t *testing.T) {
	assert.Equal(t, "Reservation #7 was cancelled.", fallbackReply(map[string]any{"ok": true, "cancelled_id": float64(7)}))
	assert.Equal(t, "There are no reservations.", fallbackReply(map[string]any{"ok": true, "reservations": []any{}}))
	assert.Equal(t, "Available: Room A (4 seats)", fallbackReply(map[string]any{"ok": true, "rooms": []any{
		map[string]any{"name": "Room A", "capacity": float64(4)},
	}}))
}
