package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/service"
)

// RoomHandler serves the room catalog and availability search.
type RoomHandler struct {
	Ledger *service.Ledger
}

// NewRoomHandler panics if ledger is nil.
func NewRoomHandler(ledger *service.Ledger) *RoomHandler {
	if ledger == nil {
		panic("nil ledger passed to NewRoomHandler")
	}
	return &RoomHandler{Ledger: ledger}
}

// List handles GET /v1/rooms.  It also reports the booking rules so
// clients can build their time pickers.
func (h *RoomHandler) List(c echo.Context) error {
	p := h.Ledger.Policy()
	openAt, closeAt := p.Hours()
	return c.JSON(http.StatusOK, echo.Map{
		"rooms":        h.Ledger.Rooms().List(),
		"open":         openAt,
		"close":        closeAt,
		"grid_minutes": int(p.Grid().Step() / time.Minute),
		"timezone":     p.Grid().Location().String(),
	})
}

// Available handles GET /v1/rooms/available?date&start&duration&min_capacity.
// duration defaults to 60 minutes.
func (h *RoomHandler) Available(c echo.Context) error {
	req := service.AvailabilityRequest{DurationMinutes: 60}
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	rooms, err := h.Ledger.FindAvailable(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":             req.Date,
		"start_time":       req.Start,
		"duration_minutes": req.DurationMinutes,
		"rooms":            rooms,
	})
}
