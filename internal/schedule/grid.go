package schedule

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Grid normalises instants to a single civil time zone and to a fixed
// granularity.  All rounding in the service goes through a Grid so that
// no other component reasons about zones or minutes directly.
type Grid struct {
	loc  *time.Location
	step int // minutes, divides 24*60
	now  func() time.Time
}

// NewGrid returns a grid for the given zone and step.  A nil clock
// defaults to time.Now.  Steps that do not divide a day evenly fall back
// to 30 minutes.
func NewGrid(loc *time.Location, stepMinutes int, now func() time.Time) *Grid {
	if loc == nil {
		loc = time.UTC
	}
	if stepMinutes <= 0 || (24*60)%stepMinutes != 0 {
		stepMinutes = 30
	}
	if now == nil {
		now = time.Now
	}
	return &Grid{loc: loc, step: stepMinutes, now: now}
}

// Location returns the civil zone of the grid.
func (g *Grid) Location() *time.Location { return g.loc }

// Step returns the grid granularity.
func (g *Grid) Step() time.Duration { return time.Duration(g.step) * time.Minute }

// Now returns the current instant in the civil zone.
func (g *Grid) Now() time.Time { return g.now().In(g.loc) }

// Floor drops t to the grid boundary at or before it.  Seconds and
// sub-seconds are always zeroed, so Floor(Floor(t)) == Floor(t).
func (g *Grid) Floor(t time.Time) time.Time {
	t = t.In(g.loc)
	m := minuteOfDay(t)
	m -= m % g.step
	return time.Date(t.Year(), t.Month(), t.Day(), m/60, m%60, 0, 0, g.loc)
}

// Next returns the first boundary strictly after Floor(t).
func (g *Grid) Next(t time.Time) time.Time {
	return g.Floor(t).Add(g.Step())
}

// Aligned reports whether t already sits on a grid boundary.
func (g *Grid) Aligned(t time.Time) bool {
	return g.Floor(t).Equal(t)
}

// DateString renders t as YYYY-MM-DD in the civil zone.
func (g *Grid) DateString(t time.Time) string { return t.In(g.loc).Format(dateLayout) }

// TimeString renders t as HH:MM in the civil zone.
func (g *Grid) TimeString(t time.Time) string { return t.In(g.loc).Format(timeLayout) }

// ParseDate parses YYYY-MM-DD as midnight of that civil date.
func (g *Grid) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), g.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrMalformedInput, s)
	}
	return d, nil
}

// ParseDateTime combines a YYYY-MM-DD date and an HH:MM time of day.
func (g *Grid) ParseDateTime(date, clock string) (time.Time, error) {
	d, err := g.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), m/60, m%60, 0, 0, g.loc), nil
}

// DayBounds returns [00:00, next day 00:00) of the civil date holding t.
func (g *Grid) DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(g.loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, g.loc)
	return start, start.AddDate(0, 0, 1)
}

// ParseClock parses HH:MM into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(timeLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: time %q must be HH:MM", ErrMalformedInput, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minuteOfDay(t time.Time) int { return t.Hour()*60 + t.Minute() }
