package model

// Room represents a bookable meeting room from the configured catalog.
// Rooms are synced into the `rooms` table at start-up and are not
// modified afterwards; booking activity never touches them.
//
// Fields:
//  ID       – primary key identifier.
//  Name     – unique display name (e.g. "Room A").
//  Capacity – number of people the room seats, always positive.
type Room struct {
    ID       uint64 `json:"id" mapstructure:"id"`             // rooms.id
    Name     string `json:"name" mapstructure:"name"`         // rooms.name
    Capacity int    `json:"capacity" mapstructure:"capacity"` // rooms.capacity
}
