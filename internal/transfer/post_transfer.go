package transfer

import "github.com/vibecreator/mixpost-api/internal/models"

type VersionRequest struct {
	AccountID  int64                 `json:"account_id"`
	IsOriginal bool                  `json:"is_original"`
	Content    []models.ContentBlock `json:"content"`
	Media      []int64               `json:"media"`
}

// PostRequest is the body of both create and update. Date (YYYY-MM-DD) and
// Time (HH:mm) are read in the user's timezone and must come together.
type PostRequest struct {
	Accounts []int64          `json:"accounts"`
	Versions []VersionRequest `json:"versions"`
	Tags     []int64          `json:"tags"`
	Date     string           `json:"date,omitempty"`
	Time     string           `json:"time,omitempty"`
}

type ScheduleRequest struct {
	ScheduledAt string `json:"scheduled_at"`
}

type DeletePostsRequest struct {
	Posts []int64 `json:"posts"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
