package repository

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
)

// ReportRepository reads per-account analytics: daily metrics and audience
// (follower count) history.
type ReportRepository interface {
	ListMetrics(ctx context.Context, accountID int64, from, to time.Time) ([]*models.Metric, error)
	ListAudience(ctx context.Context, accountID int64, from, to time.Time) ([]*models.AudienceSnapshot, error)
	UpsertAudience(ctx context.Context, s *models.AudienceSnapshot) error
}

type reportRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewReportRepository(db *sql.DB, log *zap.Logger) ReportRepository {
	return &reportRepository{db: db, log: log}
}

// ListMetrics returns rows with from <= date <= to, oldest first.
func (r *reportRepository) ListMetrics(ctx context.Context, accountID int64, from, to time.Time) ([]*models.Metric, error) {
	query := `
		SELECT id, account_id, date, data
		FROM metrics
		WHERE account_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`
	rows, err := r.db.QueryContext(ctx, query, accountID, from, to)
	if err != nil {
		r.log.Info("list metrics", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	metrics := []*models.Metric{}
	for rows.Next() {
		var m models.Metric
		if err := rows.Scan(&m.ID, &m.AccountID, &m.Date, jsonColumn{&m.Data}); err != nil {
			r.log.Info("scan metric", zap.Error(err))
			return nil, err
		}
		metrics = append(metrics, &m)
	}
	return metrics, rows.Err()
}

func (r *reportRepository) ListAudience(ctx context.Context, accountID int64, from, to time.Time) ([]*models.AudienceSnapshot, error) {
	query := `
		SELECT account_id, date, total
		FROM audiences
		WHERE account_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`
	rows, err := r.db.QueryContext(ctx, query, accountID, from, to)
	if err != nil {
		r.log.Info("list audience", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	snapshots := []*models.AudienceSnapshot{}
	for rows.Next() {
		var s models.AudienceSnapshot
		if err := rows.Scan(&s.AccountID, &s.Date, &s.Total); err != nil {
			r.log.Info("scan audience", zap.Error(err))
			return nil, err
		}
		snapshots = append(snapshots, &s)
	}
	return snapshots, rows.Err()
}

// UpsertAudience records one snapshot per account and day; the latest wins.
func (r *reportRepository) UpsertAudience(ctx context.Context, s *models.AudienceSnapshot) error {
	query := `
		INSERT INTO audiences (account_id, date, total)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, date) DO UPDATE SET total = EXCLUDED.total
	`
	if _, err := r.db.ExecContext(ctx, query, s.AccountID, s.Date, s.Total); err != nil {
		r.log.Info("upsert audience", zap.Int64("account_id", s.AccountID), zap.Error(err))
		return err
	}
	return nil
}
