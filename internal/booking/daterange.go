package booking

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of booking dates
const DateLayout = "2006-01-02"

// DateRange is the half-open interval [Begin, End) of calendar days
type DateRange struct {
	Begin time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to UTC midnight and requires begin < end
func NewDateRange(begin, end time.Time) (DateRange, error) {
	r := DateRange{Begin: day(begin), End: day(end)}
	if !r.Begin.Before(r.End) {
		return DateRange{}, fmt.Errorf("%w: start date must be before end date", ErrValidation)
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD dates into a range
func ParseDateRange(begin, end string) (DateRange, error) {
	if begin == "" || end == "" {
		return DateRange{}, fmt.Errorf("%w: start date and end date are required", ErrValidation)
	}
	b, err := parseDate(begin)
	if err != nil {
		return DateRange{}, err
	}
	e, err := parseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(b, e)
}

// Days is the number of nights in the range
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Begin).Hours() / 24)
}

// Overlaps reports whether the ranges share at least one day.
// Ranges that only touch (a.End == b.Begin) do not overlap.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.Begin.Before(o.End) && o.Begin.Before(r.End)
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Begin.Format(DateLayout), r.End.Format(DateLayout))
}

// Overlaps is the package-level form of DateRange.Overlaps
func Overlaps(a, b DateRange) bool {
	return a.Overlaps(b)
}

// Window is a search interval whose bounds are optional. A zero bound is
// unbounded on that side.
type Window struct {
	Begin time.Time
	End   time.Time
}

// ParseWindow parses optional YYYY-MM-DD bounds. Both bounds present
// must satisfy begin < end.
func ParseWindow(begin, end string) (Window, error) {
	var w Window
	var err error
	if begin != "" {
		if w.Begin, err = parseDate(begin); err != nil {
			return Window{}, err
		}
	}
	if end != "" {
		if w.End, err = parseDate(end); err != nil {
			return Window{}, err
		}
	}
	if !w.Begin.IsZero() && !w.End.IsZero() && !w.Begin.Before(w.End) {
		return Window{}, fmt.Errorf("%w: start date must be before end date", ErrValidation)
	}
	return w, nil
}

// IsZero reports whether neither bound is set
func (w Window) IsZero() bool {
	return w.Begin.IsZero() && w.End.IsZero()
}

// Overlaps applies the half-open rule with missing bounds treated as infinite
func (w Window) Overlaps(r DateRange) bool {
	if !w.End.IsZero() && !r.Begin.Before(w.End) {
		return false
	}
	if !w.Begin.IsZero() && !w.Begin.Before(r.End) {
		return false
	}
	return true
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not in YYYY-MM-DD format", ErrValidation, s)
	}
	return t, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
