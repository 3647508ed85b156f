package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/service"
)

// ReservationHandler exposes the booking ledger over HTTP.  The owner of
// every write is the caller name set by middleware.Identity; an owner in
// the request body is ignored.
type ReservationHandler struct {
	Ledger *service.Ledger
}

// NewReservationHandler panics if ledger is nil.
func NewReservationHandler(ledger *service.Ledger) *ReservationHandler {
	if ledger == nil {
		panic("nil ledger passed to NewReservationHandler")
	}
	return &ReservationHandler{Ledger: ledger}
}

// ReservationView is the JSON shape of a reservation.  Date and times are
// rendered in the civil zone.
type ReservationView struct {
	ID        uint64 `json:"id"`
	RoomID    uint64 `json:"room_id"`
	RoomName  string `json:"room_name"`
	Owner     string `json:"owner"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

func (h *ReservationHandler) view(r model.Reservation) ReservationView {
	g := h.Ledger.Policy().Grid()
	return ReservationView{
		ID:        r.ID,
		RoomID:    r.RoomID,
		RoomName:  r.RoomName,
		Owner:     r.Owner,
		Date:      g.DateString(r.Start),
		StartTime: g.TimeString(r.Start),
		EndTime:   g.TimeString(r.End),
		Start:     r.Start.Format(time.RFC3339),
		End:       r.End.Format(time.RFC3339),
	}
}

func (h *ReservationHandler) views(rs []model.Reservation) []ReservationView {
	out := make([]ReservationView, len(rs))
	for i, r := range rs {
		out[i] = h.view(r)
	}
	return out
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid request body", service.ErrMalformedInput)
	}
	return c.Validate(req)
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req service.CreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	req.Owner = middleware.Owner(c)
	res, err := h.Ledger.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"reservation": h.view(*res)})
}

// BookNow handles POST /v1/reservations/now.
func (h *ReservationHandler) BookNow(c echo.Context) error {
	var req service.BookNowRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	req.Owner = middleware.Owner(c)
	res, err := h.Ledger.BookNow(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"reservation": h.view(*res)})
}

// ListByDate handles GET /v1/reservations?date=YYYY-MM-DD.  Without a
// date the current civil day is listed.
func (h *ReservationHandler) ListByDate(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		g := h.Ledger.Policy().Grid()
		date = g.DateString(g.Now())
	}
	rs, err := h.Ledger.ListByDate(c.Request().Context(), date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "reservations": h.views(rs)})
}

// ListMine handles GET /v1/my-reservations[?date=YYYY-MM-DD].
func (h *ReservationHandler) ListMine(c echo.Context) error {
	owner := middleware.Owner(c)
	rs, err := h.Ledger.ListByOwner(c.Request().Context(), owner, c.QueryParam("date"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"owner": owner, "reservations": h.views(rs)})
}

// Cancel handles DELETE /v1/reservations/:id.  Only the owner may cancel.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return writeError(c, fmt.Errorf("%w: invalid reservation id", service.ErrMalformedInput))
	}
	if err := h.Ledger.Cancel(c.Request().Context(), id, middleware.Owner(c)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
