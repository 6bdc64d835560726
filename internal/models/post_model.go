package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PostStatus is encoded on the wire and in the database as a small integer:
//
//	draft=0  scheduled=1  published=2  failed=3
type PostStatus int

const (
	PostStatusDraft PostStatus = iota
	PostStatusScheduled
	PostStatusPublished
	PostStatusFailed
)

var postStatusNames = map[PostStatus]string{
	PostStatusDraft:     "draft",
	PostStatusScheduled: "scheduled",
	PostStatusPublished: "published",
	PostStatusFailed:    "failed",
}

func (s PostStatus) String() string {
	if name, ok := postStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("PostStatus(%d)", int(s))
}

func (s PostStatus) Valid() bool {
	_, ok := postStatusNames[s]
	return ok
}

// ParsePostStatus accepts either the wire integer or the status name.
func ParsePostStatus(v string) (PostStatus, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	if n, err := strconv.Atoi(v); err == nil {
		s := PostStatus(n)
		if !s.Valid() {
			return 0, fmt.Errorf("unknown post status %d", n)
		}
		return s, nil
	}
	for s, name := range postStatusNames {
		if name == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown post status %q", v)
}

// ScheduleStatus tracks the execution queue, independent from PostStatus.
//
//	pending=0  processing=1  processed=2
type ScheduleStatus int

const (
	ScheduleStatusPending ScheduleStatus = iota
	ScheduleStatusProcessing
	ScheduleStatusProcessed
)

func (s ScheduleStatus) String() string {
	switch s {
	case ScheduleStatusPending:
		return "pending"
	case ScheduleStatusProcessing:
		return "processing"
	case ScheduleStatusProcessed:
		return "processed"
	}
	return fmt.Sprintf("ScheduleStatus(%d)", int(s))
}

type Post struct {
	ID             int64          `db:"id" json:"id"`
	UserID         int64          `db:"user_id" json:"user_id"`
	Status         PostStatus     `db:"status" json:"status"`
	ScheduleStatus ScheduleStatus `db:"schedule_status" json:"schedule_status"`
	ScheduledAt    *time.Time     `db:"scheduled_at" json:"scheduled_at"`
	PublishedAt    *time.Time     `db:"published_at" json:"published_at"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time     `db:"deleted_at" json:"deleted_at"`

	Versions []*PostVersion   `json:"versions"`
	Accounts []*SocialAccount `json:"accounts"`
	Tags     []*Tag           `json:"tags"`
}

// EffectiveDate is the instant used to place a post on the calendar.
// It returns nil when the post has neither a schedule nor a publish date.
func (p *Post) EffectiveDate() *time.Time {
	if p.ScheduledAt != nil {
		return p.ScheduledAt
	}
	return p.PublishedAt
}

// OriginalVersion returns the canonical version, falling back to the first one.
func (p *Post) OriginalVersion() *PostVersion {
	for _, v := range p.Versions {
		if v.IsOriginal {
			return v
		}
	}
	if len(p.Versions) > 0 {
		return p.Versions[0]
	}
	return nil
}

type PostVersion struct {
	ID         int64          `db:"id" json:"id"`
	PostID     int64          `db:"post_id" json:"post_id"`
	AccountID  int64          `db:"account_id" json:"account_id"`
	IsOriginal bool           `db:"is_original" json:"is_original"`
	Content    []ContentBlock `db:"content" json:"content"`
	MediaIDs   []int64        `json:"-"`
	Media      []*Media       `json:"media"`
}

const ContentTypeText = "text"

type ContentBlock struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Text returns the value of the first text block.
func (v *PostVersion) Text() string {
	for _, b := range v.Content {
		if b.Type == ContentTypeText {
			return b.Value
		}
	}
	return ""
}

type PostAccount struct {
	PostID    int64     `db:"post_id" json:"post_id"`
	AccountID int64     `db:"account_id" json:"account_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PostFilter is the recognised option set of the post list contract.
type PostFilter struct {
	Status    *PostStatus
	TagID     int64
	AccountID int64
	Keyword   string
}

// CalendarFilter bounds the calendar query to [From, To) on effective date.
type CalendarFilter struct {
	From      time.Time
	To        time.Time
	TagID     int64
	AccountID int64
}
