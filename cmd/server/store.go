package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/room-reservation/internal/config"
	"github.com/iliyamo/room-reservation/internal/database"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
)

// store is the backend selected by STORE_DRIVER.  db is nil for the
// in-memory driver.
type store struct {
	reservations repository.ReservationStore
	rooms        []model.Room
	db           *sql.DB
}

func (s *store) close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// openStore prepares the reservation store and reconciles its room table
// with the configured catalog.
func openStore(ctx context.Context, cfg config.Config, loc *time.Location, wanted []model.Room) (*store, error) {
	switch cfg.StoreDriver {
	case "memory":
		mem := repository.NewMemoryStore(nil)
		return &store{reservations: mem, rooms: mem.SyncRooms(wanted)}, nil
	case "mysql":
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, loc)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		rooms, err := repository.NewRoomRepo(db).Sync(ctx, wanted)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &store{reservations: repository.NewReservationRepo(db, loc), rooms: rooms, db: db}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
