package calendar

import (
	"fmt"
	"time"
)

type ViewType string

const (
	ViewMonth ViewType = "month"
	ViewWeek  ViewType = "week"
)

const (
	MonthGridSize = 42
	WeekGridSize  = 7
)

func ParseViewType(v string) (ViewType, error) {
	switch ViewType(v) {
	case "", ViewMonth:
		return ViewMonth, nil
	case ViewWeek:
		return ViewWeek, nil
	}
	return "", fmt.Errorf("unknown calendar view %q", v)
}

// Dated is anything that can be placed on the calendar.
type Dated interface {
	EffectiveDate() *time.Time
}

type Options struct {
	Location     *time.Location
	FirstWeekday time.Weekday
	// Now decides IsToday; zero means time.Now().
	Now time.Time
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

type Day[T Dated] struct {
	Date           time.Time
	IsCurrentMonth bool
	IsToday        bool
	Posts          []T
}

// Window returns the half-open range [start, end) covered by the grid of the
// given reference date and view, in opts.Location.
func Window(ref time.Time, view ViewType, opts Options) (time.Time, time.Time) {
	start, n := gridStart(ref, view, opts)
	return start, AddDays(start, n)
}

func gridStart(ref time.Time, view ViewType, opts Options) (time.Time, int) {
	ref = ref.In(opts.location())
	if view == ViewWeek {
		return StartOfWeek(ref, opts.FirstWeekday), WeekGridSize
	}
	first := StartOfMonth(ref)
	return AddDays(first, -weekdayOffset(first.Weekday(), opts.FirstWeekday)), MonthGridSize
}

// BuildGrid lays out 42 (month) or 7 (week) consecutive days and buckets
// items by the calendar day of their effective date in opts.Location.
// Items without an effective date are skipped; input order is kept per day.
func BuildGrid[T Dated](ref time.Time, view ViewType, items []T, opts Options) []Day[T] {
	loc := opts.location()
	ref = ref.In(loc)
	now := opts.now()

	buckets := make(map[int][]T)
	for _, item := range items {
		at := item.EffectiveDate()
		if at == nil {
			continue
		}
		key := dayKey(at.In(loc))
		buckets[key] = append(buckets[key], item)
	}

	start, n := gridStart(ref, view, opts)
	days := make([]Day[T], 0, n)
	for i := 0; i < n; i++ {
		date := AddDays(start, i)
		current := true
		if view != ViewWeek {
			current = date.Year() == ref.Year() && date.Month() == ref.Month()
		}
		posts := buckets[dayKey(date)]
		if posts == nil {
			posts = []T{}
		}
		days = append(days, Day[T]{
			Date:           date,
			IsCurrentMonth: current,
			IsToday:        IsSameDay(date, now, loc),
			Posts:          posts,
		})
	}
	return days
}
