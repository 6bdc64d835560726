// Package calendar holds the date arithmetic and day-grid generation behind
// the scheduling calendar.
//
// Boundary helpers work in the location carried by their argument; convert
// with t.In(loc) first when the user's timezone differs from the value's.
// Day stepping always goes through time.Date so that DST transitions never
// shift a cell off midnight.
package calendar

import "time"

// StartOfDay returns midnight of d's calendar day.
func StartOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// StartOfMonth returns midnight on the first day of d's month.
func StartOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

// EndOfMonth returns the last instant of d's month.
func EndOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month()+1, 1, 0, 0, 0, 0, d.Location()).Add(-time.Nanosecond)
}

// StartOfWeek returns midnight of the first day of the week containing d.
// firstWeekday is time.Sunday or time.Monday in practice, any weekday works.
func StartOfWeek(d time.Time, firstWeekday time.Weekday) time.Time {
	return AddDays(StartOfDay(d), -weekdayOffset(d.Weekday(), firstWeekday))
}

// EndOfWeek returns the last instant of the week containing d.
func EndOfWeek(d time.Time, firstWeekday time.Weekday) time.Time {
	return AddDays(StartOfWeek(d, firstWeekday), 7).Add(-time.Nanosecond)
}

// AddDays moves d by n calendar days keeping the wall clock.
func AddDays(d time.Time, n int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day()+n, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

// AddMonths moves d by n months. The day is clamped to the target month's
// length, so Jan 31 + 1 month is the last day of February.
func AddMonths(d time.Time, n int) time.Time {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, d.Location())
	day := d.Day()
	if last := DaysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

// DaysInMonth reports the number of days of month m in year y.
func DaysInMonth(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsSameDay compares calendar days in loc, not instants.
func IsSameDay(a, b time.Time, loc *time.Location) bool {
	return dayKey(a.In(loc)) == dayKey(b.In(loc))
}

func weekdayOffset(day, firstWeekday time.Weekday) int {
	return (int(day) - int(firstWeekday) + 7) % 7
}

func dayKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
