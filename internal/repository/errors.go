// Package repository defines the storage contract of the booking ledger
// and its implementations: a MySQL adapter used in production and an
// in-memory table used in development and tests.  The sentinel errors
// below let the service layer tell a missing row apart from a failing
// store without inspecting driver types.
package repository

import "errors"

// ErrNotFound is returned when a reservation with the requested ID does
// not exist (or was removed by a concurrent cancel).
var ErrNotFound = errors.New("not found")

// ErrRoomNotFound is returned when an operation targets a room that is
// not present in the rooms table.
var ErrRoomNotFound = errors.New("room not found")
