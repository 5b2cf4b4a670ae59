package seasonality

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySeries is returned when there is nothing to aggregate.
	ErrEmptySeries = errors.New("price series is empty")
	// ErrMissingOrigin means no close price exists before the period start.
	ErrMissingOrigin = errors.New("origin close not available")
	// ErrZeroBase means the division base of a return is zero or not finite.
	ErrZeroBase = errors.New("zero division base")
)

// OriginError reports a period whose return base could not be established.
type OriginError struct {
	Period string // e.g. "year 2016", "month 2016-10", "day 2016-10-19"
	Err    error
}

func (e *OriginError) Error() string {
	return fmt.Sprintf("%s: %v", e.Period, e.Err)
}

func (e *OriginError) Unwrap() error { return e.Err }
