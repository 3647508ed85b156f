// Package database opens the MySQL connection pool and bootstraps the
// schema the repository layer expects.
package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.  DATETIME values are
// read and written in loc, the civil zone reservations are kept in.
func Open(user, pass, host, port, name string, loc *time.Location) (*sql.DB, error) {
	db, err := sql.Open("mysql", driverConfig(user, pass, host, port, name, loc).FormatDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// driverConfig leaves the session time_zone alone.  Reservation columns
// are zone-less DATETIMEs and the schema never calls NOW(), so the
// driver's Loc alone decides how instants are written and read, DST
// included.
func driverConfig(user, pass, host, port, name string, loc *time.Location) *mysql.Config {
	if loc == nil {
		loc = time.UTC
	}
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = host + ":" + port
	cfg.DBName = name
	cfg.ParseTime = true
	cfg.Loc = loc
	return cfg
}
