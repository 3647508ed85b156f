package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConsumer_HandleMessageAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "reservations.log")
	c := NewConsumer("amqp://unused", "", path, zap.NewNop())

	created := ReservationEvent{
		Type: EventCreated, ReservationID: 12, RoomID: 1, RoomName: "Room A",
		Owner: "alice", Date: "2025-01-15", StartTime: "14:00", EndTime: "15:00",
		OccurredAt: "2025-01-15T13:59:02+09:00",
	}
	cancelled := created
	cancelled.Type = EventCancelled

	for _, ev := range []ReservationEvent{created, cancelled} {
		body, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, c.handleMessage(body))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Reservation created")
	assert.Contains(t, lines[0], `room="Room A"`)
	assert.Contains(t, lines[0], "time=14:00-15:00")
	assert.Contains(t, lines[1], "Reservation cancelled")
}

func TestConsumer_HandleMessageRejectsGarbage(t *testing.T) {
	c := NewConsumer("amqp://unused", "", filepath.Join(t.TempDir(), "r.log"), nil)
	assert.Error(t, c.handleMessage([]byte("{not json")))
}
