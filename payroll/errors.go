/*
errors.go - Error types for shift classification and period aggregation

ERROR CATEGORIES:
  1. Validation errors - A shift is malformed (bad HH:mm, end not after
     start, inverted break). Deterministic: retrying never helps.
  2. Period errors - PayPeriod.Validate rejects the period-level fields
     (ErrInvalidPeriod).
  3. Aggregation errors - The first validation error met while processing
     a period, tagged with the failing shift. Aggregation stops there and
     produces no partial result.

USAGE:
  result, err := payroll.Aggregate(ctx, period, rates, legal, holidays)
  var aggErr *payroll.AggregationError
  if errors.As(err, &aggErr) {
      log.Printf("shift %s is invalid: %v", aggErr.Date, aggErr.Err)
  }
  if errors.Is(err, payroll.ErrInvalidBreak) { ... }
*/
package payroll

import (
	"errors"
	"fmt"

	"github.com/warp/payroll-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingDate is returned for a shift without a date.
	ErrMissingDate = errors.New("shift date is required")

	// ErrInvalidTime is returned for a time that is not a valid HH:mm.
	ErrInvalidTime = errors.New("invalid time, expected HH:mm")

	// ErrNonIncreasingShift is returned when the shift end is not strictly
	// after its start (after applying the crosses-midnight flag).
	ErrNonIncreasingShift = errors.New("shift end must be after shift start")

	// ErrInvalidBreak is returned when the break end is not strictly after
	// the break start.
	ErrInvalidBreak = errors.New("break end must be after break start")

	// ErrInvalidPeriod is returned by PayPeriod.Validate.
	ErrInvalidPeriod = errors.New("invalid pay period")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError describes why a single shift was rejected.
type ValidationError struct {
	Field string // "date", "start", "end", "break_start", "break_end"
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AggregationError wraps the first shift failure of a period.
type AggregationError struct {
	Index int // position of the shift in the period
	Date  calendar.Date
	Err   error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("shift #%d on %s: %v", e.Index+1, e.Date, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether err was caused by invalid caller input.
func IsValidation(err error) bool {
	var ve *ValidationError
	var ae *AggregationError
	return errors.As(err, &ve) || errors.As(err, &ae) ||
		errors.Is(err, ErrMissingDate) ||
		errors.Is(err, ErrInvalidTime) ||
		errors.Is(err, ErrNonIncreasingShift) ||
		errors.Is(err, ErrInvalidBreak) ||
		errors.Is(err, ErrInvalidPeriod)
}
