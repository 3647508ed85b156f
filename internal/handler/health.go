package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness and the state of optional backends.
// Either dependency may be nil, in which case it is reported as
// "disabled".
type HealthHandler struct {
	DB    *sql.DB
	Redis *redis.Client
}

// Health handles GET /healthz.  It answers 200 while the process is up;
// backend failures are reported in the body, not the status, so a broken
// cache does not take the instance out of rotation.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
	defer cancel()

	status := echo.Map{"status": "ok", "db": "disabled", "redis": "disabled"}
	if h.DB != nil {
		status["db"] = "ok"
		if err := h.DB.PingContext(ctx); err != nil {
			status["db"] = "down"
		}
	}
	if h.Redis != nil {
		status["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			status["redis"] = "down"
		}
	}
	return c.JSON(http.StatusOK, status)
}
