package schedule

import (
	"fmt"
	"time"
)

// Policy is the validation gate run before any conflict check.  Open and
// Close are minutes after midnight; an interval must start and end inside
// [Open, Close] of the civil date each instant falls on.
type Policy struct {
	grid  *Grid
	open  int
	close int
}

// NewPolicy builds a policy from HH:MM bounds.
func NewPolicy(grid *Grid, open, close string) (*Policy, error) {
	o, err := ParseClock(open)
	if err != nil {
		return nil, fmt.Errorf("business open: %w", err)
	}
	c, err := ParseClock(close)
	if err != nil {
		return nil, fmt.Errorf("business close: %w", err)
	}
	if o >= c {
		return nil, fmt.Errorf("business hours %s-%s: open must be before close", open, close)
	}
	return &Policy{grid: grid, open: o, close: c}, nil
}

// Grid exposes the grid the policy checks alignment against.
func (p *Policy) Grid() *Grid { return p.grid }

// Hours returns the configured bounds as HH:MM strings.
func (p *Policy) Hours() (string, string) {
	return fmt.Sprintf("%02d:%02d", p.open/60, p.open%60), fmt.Sprintf("%02d:%02d", p.close/60, p.close%60)
}

// Validate checks a booking request for roomID.  The checks run in a
// fixed order and stop at the first failure.
func (p *Policy) Validate(roomID uint64, start, end time.Time) error {
	if roomID == 0 {
		return fmt.Errorf("%w: room_id", ErrMissingField)
	}
	return p.ValidateWindow(start, end)
}

// ValidateWindow applies every rule except the room check.  Availability
// searches use it because they have no room yet.  A window must start and
// end on the same civil date.
func (p *Policy) ValidateWindow(start, end time.Time) error {
	if start.IsZero() {
		return fmt.Errorf("%w: start", ErrMissingField)
	}
	if end.IsZero() {
		return fmt.Errorf("%w: end", ErrMissingField)
	}
	if !p.grid.Aligned(start) || !p.grid.Aligned(end) {
		return fmt.Errorf("%w: times must fall on %d-minute boundaries", ErrGridAlignment, p.grid.step)
	}
	if !start.Before(end) {
		return ErrOrdering
	}
	if !p.withinHours(start) || !p.withinHours(end) || p.grid.DateString(start) != p.grid.DateString(end) {
		o, c := p.Hours()
		return fmt.Errorf("%w: reservations must be between %s and %s", ErrBusinessHours, o, c)
	}
	return nil
}

func (p *Policy) withinHours(t time.Time) bool {
	m := minuteOfDay(t.In(p.grid.loc))
	return m >= p.open && m <= p.close
}
