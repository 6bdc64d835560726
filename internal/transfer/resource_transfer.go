package transfer

import "github.com/vibecreator/mixpost-api/internal/models"

type TagRequest struct {
	Name     string `json:"name"`
	HexColor string `json:"hex_color"`
}

// SettingsRequest uses pointers so that a missing field can be told apart
// from a zero value.
type SettingsRequest struct {
	Timezone     *string `json:"timezone"`
	TimeFormat   *int    `json:"time_format"`
	WeekStartsOn *int    `json:"week_starts_on"`
	AdminEmail   *string `json:"admin_email"`
}

type DownloadMediaRequest struct {
	URL string `json:"url"`
}

type DeleteMediaRequest struct {
	Media []int64 `json:"media"`
}

type OAuthURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type DashboardResponse struct {
	Accounts       []*models.SocialAccount `json:"accounts"`
	RecentPosts    []*models.Post          `json:"recent_posts"`
	ScheduledCount int64                   `json:"scheduled_count"`
	PublishedCount int64                   `json:"published_count"`
	FailedCount    int64                   `json:"failed_count"`
}

type MetricResponse struct {
	ID        int64             `json:"id"`
	AccountID int64             `json:"account_id"`
	Date      string            `json:"date"`
	Data      models.MetricData `json:"data"`
}

type AudiencePoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type ReportSummary struct {
	TotalPosts               int64   `json:"total_posts"`
	TotalImpressions         int64   `json:"total_impressions"`
	TotalReach               int64   `json:"total_reach"`
	TotalEngagement          int64   `json:"total_engagement"`
	AverageEngagement        float64 `json:"average_engagement"`
	FollowerGrowth           int64   `json:"follower_growth"`
	FollowerGrowthPercentage float64 `json:"follower_growth_percentage"`
}

type ReportAudience struct {
	Current          int64           `json:"current"`
	Previous         int64           `json:"previous"`
	Change           int64           `json:"change"`
	ChangePercentage float64         `json:"change_percentage"`
	History          []AudiencePoint `json:"history"`
}

type ReportResponse struct {
	Account  *models.SocialAccount `json:"account"`
	Metrics  []MetricResponse      `json:"metrics"`
	Summary  ReportSummary         `json:"summary"`
	Audience ReportAudience        `json:"audience"`
}

type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type SystemEnvironment struct {
	AppName     string `json:"app_name"`
	AppVersion  string `json:"app_version"`
	GoVersion   string `json:"go_version"`
	Environment string `json:"environment"`
	URL         string `json:"url"`
}

type SystemStatus struct {
	Environment SystemEnvironment      `json:"environment"`
	Health      map[string]HealthCheck `json:"health"`
	Technical   SystemTechnical        `json:"technical"`
}

type SystemTechnical struct {
	NumCPU      int        `json:"num_cpu"`
	Goroutines  int        `json:"goroutines"`
	HeapInUse   string     `json:"heap_in_use"`
	StoragePath string     `json:"storage_path"`
	DiskUsage   *DiskUsage `json:"disk_usage"`
}

type DiskUsage struct {
	Total      string `json:"total"`
	Used       string `json:"used"`
	Free       string `json:"free"`
	Percentage int    `json:"percentage"`
}

// Service is a third-party integration and whether its credentials are set.
type Service struct {
	Name   string `json:"name"`
	Group  string `json:"group"`
	Active bool   `json:"active"`
}

type ApiKeyRequest struct {
	Name string `json:"name"`
}

// ApiKeyCreated is the only response that ever carries the plain key.
type ApiKeyCreated struct {
	*models.ApiKey
	Key string `json:"key"`
}

type UserRequest struct {
	Name string `json:"name"`
}

type ReportRequest struct {
	AccountID int64 `query:"account_id"`
	Period    int   `query:"period"`
}
