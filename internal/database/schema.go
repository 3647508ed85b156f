package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id       BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name     VARCHAR(100)    NOT NULL,
		capacity INT             NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_rooms_name (name),
		CONSTRAINT chk_rooms_capacity CHECK (capacity > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id       BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		room_id  BIGINT UNSIGNED NOT NULL,
		owner    VARCHAR(255)    NOT NULL,
		start_at DATETIME        NOT NULL,
		end_at   DATETIME        NOT NULL,
		PRIMARY KEY (id),
		KEY idx_reservations_room_start (room_id, start_at),
		KEY idx_reservations_start (start_at),
		KEY idx_reservations_owner_start (owner, start_at),
		CONSTRAINT fk_reservations_room FOREIGN KEY (room_id) REFERENCES rooms (id) ON DELETE CASCADE,
		CONSTRAINT chk_reservations_order CHECK (start_at < end_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the rooms and reservations tables when they do not
// exist yet.  It never alters existing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database: migrate: %w", err)
		}
	}
	return nil
}
