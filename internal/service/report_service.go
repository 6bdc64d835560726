package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/calendar"
	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

const (
	defaultReportPeriod = 30
	maxReportPeriod     = 365
)

type ReportService interface {
	Report(ctx context.Context, userID int64, req *transfer.ReportRequest) (*transfer.ReportResponse, error)
}

type reportService struct {
	log *zap.Logger
	sa  repository.SocialAccountRepository
	rr  repository.ReportRepository
	now func() time.Time
}

func NewReportService(log *zap.Logger, sa repository.SocialAccountRepository, rr repository.ReportRepository) ReportService {
	return &reportService{
		log: log,
		sa:  sa,
		rr:  rr,
		now: time.Now,
	}
}

// Report covers the last req.Period days, today included.
func (s *reportService) Report(ctx context.Context, userID int64, req *transfer.ReportRequest) (*transfer.ReportResponse, error) {
	if req.AccountID == 0 {
		return nil, Invalid("account_id", "The account id field is required.")
	}
	period := req.Period
	if period == 0 {
		period = defaultReportPeriod
	}
	if period < 1 || period > maxReportPeriod {
		return nil, Invalid("period", "The period must be between 1 and 365.")
	}

	account, err := s.sa.GetByID(ctx, userID, req.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}

	to := s.now().UTC()
	from := to.AddDate(0, 0, -period)

	metrics, err := s.rr.ListMetrics(ctx, account.ID, from, to)
	if err != nil {
		return nil, err
	}
	audience, err := s.rr.ListAudience(ctx, account.ID, from, to)
	if err != nil {
		return nil, err
	}

	resp := &transfer.ReportResponse{
		Account: account,
		Metrics: make([]transfer.MetricResponse, 0, len(metrics)),
	}
	for _, m := range metrics {
		resp.Metrics = append(resp.Metrics, transfer.MetricResponse{
			ID:        m.ID,
			AccountID: m.AccountID,
			Date:      m.Date.Format(calendar.DateLayout),
			Data:      m.Data,
		})
	}
	resp.Summary, resp.Audience = Summarize(metrics, audience)
	return resp, nil
}

// Summarize totals the metrics and compares the oldest and newest audience
// snapshots. Both slices are expected oldest first.
func Summarize(metrics []*models.Metric, audience []*models.AudienceSnapshot) (transfer.ReportSummary, transfer.ReportAudience) {
	var summary transfer.ReportSummary
	for _, m := range metrics {
		summary.TotalPosts += m.Data.Posts
		summary.TotalImpressions += m.Data.Impressions
		summary.TotalReach += m.Data.Reach
		summary.TotalEngagement += m.Data.Engagement
	}
	if len(metrics) > 0 {
		summary.AverageEngagement = round2(float64(summary.TotalEngagement) / float64(len(metrics)))
	}

	aud := transfer.ReportAudience{History: make([]transfer.AudiencePoint, 0, len(audience))}
	for _, a := range audience {
		aud.History = append(aud.History, transfer.AudiencePoint{
			Date:  a.Date.Format(calendar.DateLayout),
			Count: a.Total,
		})
	}
	if len(audience) > 0 {
		aud.Previous = audience[0].Total
		aud.Current = audience[len(audience)-1].Total
	}
	aud.Change = aud.Current - aud.Previous
	if aud.Previous > 0 {
		aud.ChangePercentage = round2(float64(aud.Change) / float64(aud.Previous) * 100)
	}

	summary.FollowerGrowth = aud.Change
	summary.FollowerGrowthPercentage = aud.ChangePercentage
	return summary, aud
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
