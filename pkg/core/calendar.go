package core

import "time"

// WeekBucket is one Sunday-to-Saturday span.
type WeekBucket struct {
	Number int
	Title  string
	Start  time.Time
	End    time.Time
}

// Contains reports whether day falls inside the week, bounds included.
func (w WeekBucket) Contains(day time.Time) bool {
	return !day.Before(w.Start) && !day.After(w.End)
}

// MonthBucket is one calendar month. Index runs 1-12.
type MonthBucket struct {
	Title string
	Index int
}
