package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

const recentPostsLimit = 5

type DashboardService interface {
	Dashboard(ctx context.Context, userID int64) (*transfer.DashboardResponse, error)
}

type dashboardService struct {
	log      *zap.Logger
	accounts AccountService
	posts    PostService
	pr       repository.PostRepository
}

func NewDashboardService(log *zap.Logger, accounts AccountService, posts PostService, pr repository.PostRepository) DashboardService {
	return &dashboardService{
		log:      log,
		accounts: accounts,
		posts:    posts,
		pr:       pr,
	}
}

func (s *dashboardService) Dashboard(ctx context.Context, userID int64) (*transfer.DashboardResponse, error) {
	resp := &transfer.DashboardResponse{}
	var counts map[models.PostStatus]int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		resp.Accounts, err = s.accounts.List(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		resp.RecentPosts, _, err = s.posts.List(gctx, userID, models.PostFilter{}, repository.Page{Number: 1, Size: recentPostsLimit})
		return err
	})
	g.Go(func() (err error) {
		counts, err = s.pr.CountByStatus(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp.ScheduledCount = counts[models.PostStatusScheduled]
	resp.PublishedCount = counts[models.PostStatusPublished]
	resp.FailedCount = counts[models.PostStatusFailed]
	return resp, nil
}
