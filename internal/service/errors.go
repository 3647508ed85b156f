// Package service implements the booking ledger: the transactional core
// that creates and cancels room reservations, lists them and searches for
// free rooms.  All operations return the sentinel errors below so
// transports can map them without inspecting store or driver errors.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/room-reservation/internal/schedule"
)

// Input and validation errors are defined next to the grid and policy.
var (
	ErrMalformedInput = schedule.ErrMalformedInput
	ErrValidation     = schedule.ErrValidation
	ErrMissingField   = schedule.ErrMissingField
	ErrGridAlignment  = schedule.ErrGridAlignment
	ErrOrdering       = schedule.ErrOrdering
	ErrBusinessHours  = schedule.ErrBusinessHours
)

var (
	// ErrConflict means the requested interval overlaps an existing
	// reservation on the same room.
	ErrConflict = errors.New("conflict")
	// ErrNotFound means the referenced reservation does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRoomNotFound means the referenced room is not in the catalog.
	ErrRoomNotFound = fmt.Errorf("%w: room", ErrNotFound)
	// ErrForbidden means the caller does not own the reservation.
	ErrForbidden = errors.New("forbidden")
	// ErrTransient means the room scope could not be acquired in time or
	// the store failed.  It is the only retryable kind.
	ErrTransient = errors.New("temporarily unavailable")
)

// Kind names the error class of err as reported to clients.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, ErrBusinessHours):
		return "business_hours"
	case errors.Is(err, ErrGridAlignment):
		return "grid_alignment"
	case errors.Is(err, ErrOrdering):
		return "ordering"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrTransient):
		return "transient"
	}
	return "internal"
}
