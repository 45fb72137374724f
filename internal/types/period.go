package types

import (
	"errors"
	"fmt"
	"time"
)

// Period is a half-open time range [Start, End). Envelope usage and
// transaction range queries take the period as an explicit parameter, the
// calendar month is only the default via Month.Period().
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

var ErrInvalidPeriod = errors.New("period end must be after its start")

// NewPeriod returns the period [start, end).
func NewPeriod(start, end time.Time) (Period, error) {
	if !end.After(start) {
		return Period{}, ErrInvalidPeriod
	}

	return Period{Start: start, End: end}, nil
}

// Contains reports whether the time instant falls within the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// IsZero reports if the period is the zero value.
func (p Period) IsZero() bool {
	return p.Start.IsZero() && p.End.IsZero()
}

// String returns the period formatted as "[start, end)".
func (p Period) String() string {
	return fmt.Sprintf("[%s, %s)", p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339))
}
