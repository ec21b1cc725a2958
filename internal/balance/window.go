package balance

import "time"

// Window bounds postings by transaction timestamp. Both ends are inclusive
// and a zero bound is unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// All is the unbounded window.
var All = Window{}

// Between returns the window [start, end].
func Between(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

// Until returns the window of everything up to and including end.
func Until(end time.Time) Window {
	return Window{End: end}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}
