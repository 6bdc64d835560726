package models

import "time"

type MetricData struct {
	Impressions int64 `json:"impressions"`
	Reach       int64 `json:"reach"`
	Engagement  int64 `json:"engagement"`
	Posts       int64 `json:"posts"`
}

// Metric is one day of provider analytics for an account.
type Metric struct {
	ID        int64      `db:"id" json:"id"`
	AccountID int64      `db:"account_id" json:"account_id"`
	Date      time.Time  `db:"date" json:"date"`
	Data      MetricData `db:"data" json:"data"`
}

type AudienceSnapshot struct {
	AccountID int64     `db:"account_id" json:"-"`
	Date      time.Time `db:"date" json:"date"`
	Total     int64     `db:"total" json:"count"`
}
