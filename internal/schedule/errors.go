// Package schedule holds the pure time rules of the booking engine: the
// civil-time grid every instant is normalised to, the business-hours
// gate a requested interval must pass, and the overlap predicate used
// for conflict detection.  Nothing in this package performs I/O.
package schedule

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is returned when a date or time string cannot be
// parsed.  It is always a client bug and never worth retrying.
var ErrMalformedInput = errors.New("malformed input")

// ErrValidation is the parent of every policy violation.  Callers that
// only care whether a request broke a booking rule can match on it.
var ErrValidation = errors.New("validation failed")

var (
	ErrMissingField  = fmt.Errorf("%w: required field missing", ErrValidation)
	ErrGridAlignment = fmt.Errorf("%w: time not aligned to grid", ErrValidation)
	ErrOrdering      = fmt.Errorf("%w: start must be before end", ErrValidation)
	ErrBusinessHours = fmt.Errorf("%w: outside business hours", ErrValidation)
)
