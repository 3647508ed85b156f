package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/iliyamo/room-reservation/internal/model"
)

// DefaultRooms is used when no room catalog file exists.
var DefaultRooms = []model.Room{
	{Name: "Room A", Capacity: 4},
	{Name: "Room B", Capacity: 6},
	{Name: "Room C", Capacity: 8},
	{Name: "Room D", Capacity: 12},
}

// LoadRooms reads the `rooms` list from a YAML file:
//
//	rooms:
//	  - name: Room A
//	    capacity: 4
//
// IDs in the file are ignored; the store assigns them.  A missing file
// yields DefaultRooms.
func LoadRooms(path string) ([]model.Room, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return append([]model.Room(nil), DefaultRooms...), nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read rooms: %w", err)
	}
	var rooms []model.Room
	if err := v.UnmarshalKey("rooms", &rooms); err != nil {
		return nil, fmt.Errorf("config: decode rooms: %w", err)
	}
	return validateRooms(rooms)
}

func validateRooms(rooms []model.Room) ([]model.Room, error) {
	if len(rooms) == 0 {
		return nil, errors.New("config: room catalog is empty")
	}
	seen := map[string]bool{}
	out := make([]model.Room, 0, len(rooms))
	for i, r := range rooms {
		r.ID = 0
		r.Name = strings.TrimSpace(r.Name)
		switch {
		case r.Name == "":
			return nil, fmt.Errorf("config: room #%d has no name", i+1)
		case r.Capacity <= 0:
			return nil, fmt.Errorf("config: room %q needs a positive capacity", r.Name)
		case seen[r.Name]:
			return nil, fmt.Errorf("config: room %q listed twice", r.Name)
		}
		seen[r.Name] = true
		out = append(out, r)
	}
	return out, nil
}
