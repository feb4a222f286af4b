// Package calendar computes the week and month buckets seeded for a year.
//
// Weeks run Sunday to Saturday. Week 1 is the week containing January 1,
// so it may start in the previous year; the last week is the one containing
// December 31 and may end in the next year. All functions are pure.
package calendar

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapyear/pkg/core"
)

const day = 24 * time.Hour

// date returns midnight UTC of the given day.
func date(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// WeekTitle formats a week number as its row title.
func WeekTitle(n int) string {
	return fmt.Sprintf("Week %02d", n)
}

// Weeks returns the Sunday-aligned weeks covering year, numbered from 1.
// A span is emitted while its Sunday is on or before December 31, which
// gives 53 weeks in most years; a leap year starting on a Saturday needs a
// 54th span for December 31 alone.
func Weeks(year int) []core.WeekBucket {
	jan1 := date(year, time.January, 1)
	dec31 := date(year, time.December, 31)

	start := jan1.AddDate(0, 0, -int(jan1.Weekday()))

	var weeks []core.WeekBucket
	for n := 1; !start.After(dec31); n++ {
		end := start.AddDate(0, 0, 6)
		if !end.Before(jan1) {
			weeks = append(weeks, core.WeekBucket{
				Number: n,
				Title:  WeekTitle(n),
				Start:  start,
				End:    end,
			})
		}
		start = start.AddDate(0, 0, 7)
	}
	return weeks
}

// Months returns the twelve months in calendar order.
func Months() []core.MonthBucket {
	months := make([]core.MonthBucket, 12)
	for i := range months {
		m := time.Month(i + 1)
		months[i] = core.MonthBucket{Title: m.String(), Index: int(m)}
	}
	return months
}

// Month returns the bucket for a month index (1-12).
func Month(index int) core.MonthBucket {
	m := time.Month(index)
	return core.MonthBucket{Title: m.String(), Index: index}
}

// AssignWeekToMonth returns the month that owns week.
//
// A week that contains the first day of one of year's months belongs to that
// month, so a week spanning a month boundary goes to the later month. Any
// other week belongs to the month its Sunday falls in.
func AssignWeekToMonth(week core.WeekBucket, year int) core.MonthBucket {
	for i := 1; i <= 12; i++ {
		if week.Contains(date(year, time.Month(i), 1)) {
			return Month(i)
		}
	}
	return Month(int(week.Start.Month()))
}

// MonthRange returns the first and last day of a month of year.
func MonthRange(year int, m core.MonthBucket) (first, last time.Time) {
	first = date(year, time.Month(m.Index), 1)
	last = first.AddDate(0, 1, 0).Add(-day)
	return first, last
}
