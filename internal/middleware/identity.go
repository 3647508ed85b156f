package middleware

import (
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/model"
)

// OwnerHeader carries the caller's display name.  Authentication is out of
// scope; the header is trusted as-is.
const OwnerHeader = "X-User-Name"

// GuestOwner is used when no name is supplied.
const GuestOwner = "guest"

const ownerKey = "owner"

// Identity stores the caller's name in the context under "owner".
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			name := clampName(c.Request().Header.Get(OwnerHeader))
			if name == "" {
				name = GuestOwner
			}
			c.Set(ownerKey, name)
			return next(c)
		}
	}
}

// Owner returns the name stored by Identity, or GuestOwner.
func Owner(c echo.Context) string {
	if v, ok := c.Get(ownerKey).(string); ok && v != "" {
		return v
	}
	return GuestOwner
}

// clampName drops invalid UTF-8 and keeps at most model.MaxOwnerLength
// characters, cutting on a rune boundary.
func clampName(raw string) string {
	name := strings.TrimSpace(strings.ToValidUTF8(raw, ""))
	if utf8.RuneCountInString(name) <= model.MaxOwnerLength {
		return name
	}
	n := 0
	for i := range name {
		if n == model.MaxOwnerLength {
			return strings.TrimSpace(name[:i])
		}
		n++
	}
	return name
}
