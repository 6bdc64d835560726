package transfer

import (
	"time"

	"github.com/vibecreator/mixpost-api/internal/models"
)

type CalendarAccount struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Provider models.Provider `json:"provider"`
	Image    *string         `json:"image"`
}

type CalendarTag struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	HexColor string `json:"hex_color"`
}

// CalendarItem is the lightweight projection of a post placed on the calendar.
type CalendarItem struct {
	ID          int64             `json:"id"`
	Status      models.PostStatus `json:"status"`
	ScheduledAt *time.Time        `json:"scheduled_at"`
	PublishedAt *time.Time        `json:"published_at"`
	Content     string            `json:"content"`
	Accounts    []CalendarAccount `json:"accounts"`
	Tags        []CalendarTag     `json:"tags"`
}

func (i CalendarItem) EffectiveDate() *time.Time {
	if i.ScheduledAt != nil {
		return i.ScheduledAt
	}
	return i.PublishedAt
}

type CalendarPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Type  string `json:"type"`
}

type CalendarDay struct {
	Date           string         `json:"date"`
	IsCurrentMonth bool           `json:"is_current_month"`
	IsToday        bool           `json:"is_today"`
	Posts          []CalendarItem `json:"posts"`
}

type CalendarResponse struct {
	Posts  []CalendarItem `json:"posts"`
	Period CalendarPeriod `json:"period"`
	Days   []CalendarDay  `json:"days,omitempty"`
}

// CalendarRequest is read from the query string. Date defaults to today in
// the user's timezone and Type to month.
type CalendarRequest struct {
	Date      string `query:"date"`
	Type      string `query:"type"`
	AccountID int64  `query:"account_id"`
	TagID     int64  `query:"tag_id"`
	Grid      bool   `query:"grid"`
}
