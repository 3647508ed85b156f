package model

import "time"

// MaxOwnerLength is the longest owner name, in characters, the
// reservations.owner column holds.
const MaxOwnerLength = 255

// Reservation records one booking of a room for a half-open interval
// [Start, End).  Reservations are never updated: they are inserted once
// by the booking ledger and removed by a hard delete on cancel.  Start
// and End are civil-time instants in the configured zone.
//
// Fields:
//  ID       – primary key identifier assigned by the store.
//  RoomID   – room being reserved.
//  RoomName – display name joined from the room catalog (not stored).
//  Owner    – opaque identifier of the requester.
//  Start    – first instant of the reservation, grid aligned.
//  End      – first instant after the reservation, grid aligned.
type Reservation struct {
    ID       uint64    `json:"id"`                  // reservations.id
    RoomID   uint64    `json:"room_id"`             // reservations.room_id
    RoomName string    `json:"room_name,omitempty"` // rooms.name
    Owner    string    `json:"owner"`               // reservations.owner
    Start    time.Time `json:"start"`               // reservations.start_at
    End      time.Time `json:"end"`                 // reservations.end_at
}
