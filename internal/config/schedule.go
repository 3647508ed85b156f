package config

import (
	"fmt"
	"time"
)

// ScheduleConfig holds the booking rules and the room-scope settings.
type ScheduleConfig struct {
	Timezone     string        // IANA zone all reservations live in
	Open         string        // HH:MM, earliest allowed start
	Close        string        // HH:MM, latest allowed end
	GridMinutes  int           // slot size, must divide a day
	LockBackend  string        // "memory" or "redis"
	LockWait     time.Duration // per acquisition attempt
	LockAttempts int
	LockTTL      time.Duration // redis lock expiry
}

// LoadScheduleConfig reads APP_TIMEZONE, BUSINESS_OPEN, BUSINESS_CLOSE,
// GRID_MINUTES and the LOCK_* variables.
func LoadScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		Timezone:     envStr("APP_TIMEZONE", "Asia/Tokyo"),
		Open:         envStr("BUSINESS_OPEN", "07:00"),
		Close:        envStr("BUSINESS_CLOSE", "22:00"),
		GridMinutes:  envInt("GRID_MINUTES", 30),
		LockBackend:  envStr("LOCK_BACKEND", "memory"),
		LockWait:     envDur("LOCK_WAIT", 3*time.Second),
		LockAttempts: envInt("LOCK_ATTEMPTS", 3),
		LockTTL:      envDur("LOCK_TTL", 10*time.Second),
	}
}

// Location resolves Timezone.
func (s ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}
