// Package router registers the HTTP routes on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/handler"
)

// Deps bundles the handlers and route-level middleware.  Cache and Limit
// may be nil.
type Deps struct {
	Health       *handler.HealthHandler
	Rooms        *handler.RoomHandler
	Reservations *handler.ReservationHandler
	Chat         *handler.ChatHandler
	Cache        echo.MiddlewareFunc
	Limit        echo.MiddlewareFunc
}

func optional(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mw))
	for _, m := range mw {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes maps every endpoint.  Reads are unthrottled; writes and
// chat go through the rate limiter; the room catalog is cached.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", d.Health.Health)

	v1 := e.Group("/v1")
	v1.GET("/rooms", d.Rooms.List, optional(d.Cache)...)
	v1.GET("/rooms/available", d.Rooms.Available)

	limited := optional(d.Limit)
	v1.GET("/reservations", d.Reservations.ListByDate)
	v1.POST("/reservations", d.Reservations.Create, limited...)
	v1.POST("/reservations/now", d.Reservations.BookNow, limited...)
	v1.DELETE("/reservations/:id", d.Reservations.Cancel, limited...)
	v1.GET("/my-reservations", d.Reservations.ListMine)

	v1.POST("/chat", d.Chat.Send, limited...)
	v1.GET("/chat/:session", d.Chat.GetHistory)
	v1.DELETE("/chat/:session", d.Chat.ClearHistory)
}
