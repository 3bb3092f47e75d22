// Package interval defines the half-open occupancy period shared by every
// availability and conflict decision in the campground domain.
package interval

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid is returned when an interval does not start strictly before it ends.
var ErrInvalid = errors.New("interval: start must be before end")

const (
	// CheckInHour is the default arrival hour applied to date-only stays.
	CheckInHour = 14
	// CheckOutHour is the default departure hour applied to date-only stays.
	CheckOutHour = 9
)

// Interval is a half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// New validates start < end and returns the interval.
func New(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// ForStay builds a stay interval from arrival and departure dates using the
// default check-in and check-out hours in loc.
func ForStay(arrival, departure time.Time, loc *time.Location) (Interval, error) {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := arrival.In(loc).Date()
	dy, dm, dd := departure.In(loc).Date()
	return New(
		time.Date(ay, am, ad, CheckInHour, 0, 0, 0, loc),
		time.Date(dy, dm, dd, CheckOutHour, 0, 0, 0, loc),
	)
}

// Validate reports ErrInvalid for zero-length or inverted intervals.
func (i Interval) Validate() error {
	if i.Start.IsZero() || i.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalid)
	}
	if !i.Start.Before(i.End) {
		return ErrInvalid
	}
	return nil
}

// Overlaps reports whether a and b share any instant. Intervals that merely
// touch at a boundary do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Overlaps reports whether the receiver overlaps other.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i, other)
}

// Abuts reports whether one interval ends exactly where the other starts.
func (i Interval) Abuts(other Interval) bool {
	return i.End.Equal(other.Start) || other.End.Equal(i.Start)
}

// Contains reports whether t falls inside the interval.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Nights counts the calendar nights between the arrival and departure dates.
// A stay that starts and ends on the same date counts as one night.
func (i Interval) Nights() int {
	loc := i.Start.Location()
	sy, sm, sd := i.Start.Date()
	ey, em, ed := i.End.In(loc).Date()
	start := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	nights := int(end.Sub(start).Hours() / 24)
	if nights < 1 {
		return 1
	}
	return nights
}

// In returns the interval with both bounds expressed in loc. Nights depends on
// the zone of Start, so stays are kept in the campground's zone.
func (i Interval) In(loc *time.Location) Interval {
	if loc == nil {
		return i
	}
	return Interval{Start: i.Start.In(loc), End: i.End.In(loc)}
}

// UTC returns the interval with both bounds converted to UTC.
func (i Interval) UTC() Interval {
	return Interval{Start: i.Start.UTC(), End: i.End.UTC()}
}

// IsZero reports whether both bounds are unset.
func (i Interval) IsZero() bool {
	return i.Start.IsZero() && i.End.IsZero()
}

// Equal reports whether both bounds denote the same instants.
func (i Interval) Equal(other Interval) bool {
	return i.Start.Equal(other.Start) && i.End.Equal(other.End)
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}
