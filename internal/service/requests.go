package service

// CreateRequest books RoomID for [Start, End) on Date.  Date is
// YYYY-MM-DD and the times are HH:MM in the civil zone.
type CreateRequest struct {
	RoomID uint64 `json:"room_id" validate:"required"`
	Owner  string `json:"owner"`
	Date   string `json:"date" validate:"required"`
	Start  string `json:"start_time" validate:"required"`
	End    string `json:"end_time" validate:"required"`
}

// BookNowRequest books RoomID from the current grid slot for
// DurationMinutes past the next boundary.
type BookNowRequest struct {
	RoomID          uint64 `json:"room_id" validate:"required"`
	Owner           string `json:"owner"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`
}

// AvailabilityRequest asks which rooms are free for DurationMinutes from
// Start on Date.  MinCapacity of zero disables the capacity filter.
type AvailabilityRequest struct {
	Date            string `json:"date" query:"date" validate:"required"`
	Start           string `json:"start_time" query:"start" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" query:"duration" validate:"required,gt=0"`
	MinCapacity     int    `json:"min_capacity" query:"min_capacity" validate:"gte=0"`
}
