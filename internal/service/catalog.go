package service

import (
	"sort"
	"strings"

	"github.com/iliyamo/room-reservation/internal/model"
)

// RoomCatalog is the static, read-only list of bookable rooms.
type RoomCatalog struct {
	rooms []model.Room
	byID  map[uint64]model.Room
}

// NewRoomCatalog copies rooms and orders them by ID.
func NewRoomCatalog(rooms []model.Room) *RoomCatalog {
	c := &RoomCatalog{
		rooms: append([]model.Room(nil), rooms...),
		byID:  make(map[uint64]model.Room, len(rooms)),
	}
	sort.Slice(c.rooms, func(i, j int) bool { return c.rooms[i].ID < c.rooms[j].ID })
	for _, r := range c.rooms {
		c.byID[r.ID] = r
	}
	return c
}

// List returns a copy of all rooms ordered by ID.
func (c *RoomCatalog) List() []model.Room {
	return append([]model.Room(nil), c.rooms...)
}

// Get looks a room up by ID.
func (c *RoomCatalog) Get(id uint64) (model.Room, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Lookup finds a room by name, ignoring case and surrounding space.
func (c *RoomCatalog) Lookup(name string) (model.Room, bool) {
	name = strings.TrimSpace(name)
	for _, r := range c.rooms {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return model.Room{}, false
}
