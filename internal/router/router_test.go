package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/room-reservation/internal/chat"
	"github.com/iliyamo/room-reservation/internal/handler"
	"github.com/iliyamo/room-reservation/internal/lock"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/schedule"
	"github.com/iliyamo/room-reservation/internal/service"
)

var jst = time.FixedZone("JST", 9*3600)

type echoModel struct{}

func (echoModel) Complete(ctx context.Context, turn chat.Turn) (*chat.Reply, error) {
	return &chat.Reply{Text: "you said: " + turn.Prompt}, nil
}

func setupServer(t *testing.T, withChat bool) *echo.Echo {
	t.Helper()
	rooms := []model.Room{
		{ID: 1, Name: "Room A", Capacity: 4},
		{ID: 2, Name: "Room B", Capacity: 6},
		{ID: 3, Name: "Room C", Capacity: 10},
		{ID: 4, Name: "Room D", Capacity: 12},
	}
	now := time.Date(2025, 1, 15, 14, 4, 0, 0, jst)
	grid := schedule.NewGrid(jst, 30, func() time.Time { return now })
	policy, err := schedule.NewPolicy(grid, "07:00", "22:00")
	require.NoError(t, err)
	ledger := service.NewLedger(repository.NewMemoryStore(rooms), service.NewRoomCatalog(rooms), policy,
		lock.NewKeyedMutex(), service.Options{Logger: zap.NewNop()})

	var agent *chat.Agent
	if withChat {
		agent = chat.NewAgent(echoModel{}, ledger, chat.AgentOptions{})
	}

	e := echo.New()
	e.Validator = handler.NewValidator()
	e.Use(middleware.Identity())
	RegisterRoutes(e, Deps{
		Health:       &handler.HealthHandler{},
		Rooms:        handler.NewRoomHandler(ledger),
		Reservations: handler.NewReservationHandler(ledger),
		Chat:         handler.NewChatHandler(agent, nil),
	})
	return e
}

func call(e *echo.Echo, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != "" {
		req.Header.Set(middleware.OwnerHeader, user)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func reserve(room int, date, start, end string) string {
	b, _ := json.Marshal(map[string]any{"room_id": room, "date": date, "start_time": start, "end_time": end})
	return string(b)
}

func TestReservationLifecycle(t *testing.T) {
	e := setupServer(t, false)

	rec := call(e, http.MethodPost, "/v1/reservations", "alice", reserve(1, "2025-01-15", "15:00", "16:00"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)["reservation"].(map[string]any)
	assert.Equal(t, "Room A", created["room_name"])
	assert.Equal(t, "alice", created["owner"])
	assert.Equal(t, "15:00", created["start_time"])
	assert.Equal(t, "2025-01-15T15:00:00+09:00", created["start"])
	id := int(created["id"].(float64))

	rec = call(e, http.MethodPost, "/v1/reservations", "bob", reserve(1, "2025-01-15", "15:30", "16:30"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode(t, rec)["error"])

	rec = call(e, http.MethodGet, "/v1/reservations?date=2025-01-15", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["reservations"], 1)

	rec = call(e, http.MethodGet, "/v1/my-reservations", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["reservations"])

	path := "/v1/reservations/" + strconv.Itoa(id)
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodDelete, path, "bob", "").Code)
	assert.Equal(t, http.StatusNoContent, call(e, http.MethodDelete, path, "alice", "").Code)
	assert.Equal(t, http.StatusNotFound, call(e, http.MethodDelete, path, "alice", "").Code)
	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodDelete, "/v1/reservations/abc", "alice", "").Code)
}

func TestCreateErrors(t *testing.T) {
	e := setupServer(t, false)

	cases := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"before opening", reserve(1, "2025-01-15", "06:30", "07:30"), http.StatusBadRequest, "business_hours"},
		{"off grid", reserve(1, "2025-01-15", "10:10", "11:00"), http.StatusBadRequest, "grid_alignment"},
		{"reversed", reserve(1, "2025-01-15", "11:00", "10:00"), http.StatusBadRequest, "ordering"},
		{"bad date", reserve(1, "15.01.2025", "10:00", "11:00"), http.StatusBadRequest, "malformed_input"},
		{"missing", `{"room_id": 1}`, http.StatusBadRequest, "missing_field"},
		{"not json", `{"room_id": `, http.StatusBadRequest, "malformed_input"},
		{"unknown room", reserve(42, "2025-01-15", "10:00", "11:00"), http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(e, http.MethodPost, "/v1/reservations", "alice", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.kind, decode(t, rec)["error"])
		})
	}
}

func TestBookNow(t *testing.T) {
	e := setupServer(t, false)

	rec := call(e, http.MethodPost, "/v1/reservations/now", "", `{"room_id": 2, "duration_minutes": 30}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode(t, rec)["reservation"].(map[string]any)
	assert.Equal(t, "14:00", res["start_time"])
	assert.Equal(t, "15:00", res["end_time"])
	assert.Equal(t, middleware.GuestOwner, res["owner"])

	rec = call(e, http.MethodPost, "/v1/reservations/now", "", `{"room_id": 2, "duration_minutes": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoomsAndAvailability(t *testing.T) {
	e := setupServer(t, false)

	rec := call(e, http.MethodGet, "/v1/rooms", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["rooms"], 4)
	assert.Equal(t, "07:00", body["open"])
	assert.Equal(t, float64(30), body["grid_minutes"])

	require.Equal(t, http.StatusCreated,
		call(e, http.MethodPost, "/v1/reservations", "x", reserve(3, "2025-01-15", "14:30", "15:30")).Code)

	rec = call(e, http.MethodGet, "/v1/rooms/available?date=2025-01-15&start=14:00&duration=60&min_capacity=10", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rooms := decode(t, rec)["rooms"].([]any)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Room D", rooms[0].(map[string]any)["name"])

	rec = call(e, http.MethodGet, "/v1/rooms/available?date=2025-01-15&start=14:00", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["rooms"], 3)

	rec = call(e, http.MethodGet, "/v1/rooms/available?start=14:00", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndChat(t *testing.T) {
	e := setupServer(t, false)
	rec := call(e, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = call(e, http.MethodPost, "/v1/chat", "", `{"message": "hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	e = setupServer(t, true)
	rec = call(e, http.MethodPost, "/v1/chat", "alice", `{"message": "hi"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "you said: hi", body["reply"])
	assert.Equal(t, chat.ActionInfo, body["action"])
	assert.NotEmpty(t, body["session_id"])

	rec = call(e, http.MethodPost, "/v1/chat", "alice", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(e, http.MethodGet, "/v1/chat/abc", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["count"])
	assert.Equal(t, http.StatusNoContent, call(e, http.MethodDelete, "/v1/chat/abc", "", "").Code)
}
