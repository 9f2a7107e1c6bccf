// Package clock abstracts "now" so date-driven logic can be tested on a fixed day.
package clock

import "time"

// DateLayout formats calendar dates without time of day.
const DateLayout = "2006-01-02"

type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// System returns the wall clock expressed in loc. A nil loc means time.Local.
func System(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return Func(func() time.Time { return time.Now().In(loc) })
}

// Fixed always returns t.
func Fixed(t time.Time) Clock {
	return Func(func() time.Time { return t })
}

// DateOf returns the calendar date of t in its own location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// SameDay compares the calendar dates of a and b, ignoring time of day. Each
// value is read in its own location so a DATE column scanned as UTC midnight
// still matches a local "today".
func SameDay(a, b time.Time) bool {
	return DateOf(a) == DateOf(b)
}
