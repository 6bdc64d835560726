package models

import "time"

const (
	DefaultTimezone     = "UTC"
	DefaultTimeFormat   = 24
	DefaultWeekStartsOn = 1
)

type Settings struct {
	ID           int64     `db:"id" json:"-"`
	UserID       int64     `db:"user_id" json:"-"`
	Timezone     string    `db:"timezone" json:"timezone"`
	TimeFormat   int       `db:"time_format" json:"time_format"`
	WeekStartsOn int       `db:"week_starts_on" json:"week_starts_on"`
	AdminEmail   string    `db:"admin_email" json:"admin_email"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

func DefaultSettings(userID int64) *Settings {
	return &Settings{
		UserID:       userID,
		Timezone:     DefaultTimezone,
		TimeFormat:   DefaultTimeFormat,
		WeekStartsOn: DefaultWeekStartsOn,
	}
}

// Location falls back to UTC for unknown zones.
func (s *Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
