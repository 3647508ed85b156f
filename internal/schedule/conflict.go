package schedule

import "time"

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any
// instant.  Intervals that only touch (aEnd == bStart) do not overlap,
// so back-to-back reservations are allowed.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
