package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation/internal/model"
)

func writeRooms(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rooms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadRooms_File(t *testing.T) {
	path := writeRooms(t, `
rooms:
  - name: " Focus "
    capacity: 2
  - id: 40
    name: Board
    capacity: 16
`)
	rooms, err := LoadRooms(path)
	require.NoError(t, err)
	assert.Equal(t, []model.Room{
		{Name: "Focus", Capacity: 2},
		{Name: "Board", Capacity: 16},
	}, rooms)
}

func TestLoadRooms_MissingFileUsesDefaults(t *testing.T) {
	rooms, err := LoadRooms(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRooms, rooms)
}

func TestLoadRooms_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":     "rooms: []\n",
		"no name":   "rooms:\n  - capacity: 3\n",
		"capacity":  "rooms:\n  - name: A\n    capacity: 0\n",
		"duplicate": "rooms:\n  - name: A\n    capacity: 1\n  - name: A\n    capacity: 2\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadRooms(writeRooms(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadScheduleConfig_Env(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("GRID_MINUTES", "15")
	t.Setenv("LOCK_WAIT", "250ms")
	cfg := LoadScheduleConfig()
	assert.Equal(t, 15, cfg.GridMinutes)
	assert.Equal(t, "07:00", cfg.Open)
	assert.Equal(t, int64(250), cfg.LockWait.Milliseconds())
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 5*cfg.RefillInterval, cfg.TTL)
}
