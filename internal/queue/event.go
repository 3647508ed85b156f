// Package queue defines the reservation events exchanged over RabbitMQ,
// the publisher used by the booking ledger and the background consumer
// that turns events into an audit log.
package queue

// Event types carried in ReservationEvent.Type.
const (
	EventCreated   = "reservation.created"
	EventCancelled = "reservation.cancelled"
)

// DefaultQueueName is the durable queue both sides declare.
const DefaultQueueName = "reservation.events"

// ReservationEvent is published after a reservation is committed or
// removed.  It carries enough information for downstream consumers to log
// or notify without querying the primary database.  Date and times are
// civil-zone strings as shown to users.
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID uint64 `json:"reservation_id"`
	RoomID        uint64 `json:"room_id"`
	RoomName      string `json:"room_name"`
	Owner         string `json:"owner"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	OccurredAt    string `json:"occurred_at"`
}
