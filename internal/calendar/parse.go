package calendar

import (
	"errors"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Layouts without a zone are read in the caller's location.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	DateLayout,
}

// ParseTimestamp accepts RFC 3339 (with or without fractional seconds) and a
// handful of zone-less layouts interpreted in loc.
func ParseTimestamp(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}

// ParseDate reads YYYY-MM-DD as midnight in loc.
func ParseDate(v string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, v, loc)
}

// CombineDateTime joins a YYYY-MM-DD date and a HH:mm clock into one instant in loc.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	c, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc), nil
}
